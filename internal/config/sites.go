package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Site is one entry of the registry: a listing page and the selector that
// matches its job cards.
type Site struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Selector string `yaml:"selector"`
	Source   string `yaml:"source"` // human name of the board, used in the prompt
	Guide    string `yaml:"guide"`  // field -> markup mapping handed to the model
}

// Label is the short name used in logs and error messages.
func (s Site) Label() string {
	if s.Name != "" {
		return s.Name
	}
	parts := strings.Split(s.URL, "/")
	return parts[len(parts)-1]
}

// NaukriGuide maps every extracted field to where it lives in a Naukri job card.
const NaukriGuide = `- For job_id: Extract from data-job-id attribute of div.srp-jobtuple-wrapper
- For title: Extract from a.title
- For company: Extract from a.comp-name
- For company_rating: Find span.main-2 inside the rating element
- For company_reviews: Extract from a.review
- For experience: Find span with title containing "Yrs"
- For salary: Find span with title containing "Lacs PA" or salary information
- For location: Find span.locWdth
- For description: Extract from span.job-desc
- For skills: Extract all li elements inside ul.tags-gt
- For posted: Extract from span.job-post-day
- For detail_url: Extract href from a.title
- For logo_url: Extract src from img.logoImage`

const naukriSource = "Naukri.com"

// DefaultSites returns the built-in registry in processing order.
func DefaultSites() []Site {
	return []Site{
		{
			URL:      "https://www.naukri.com/ola-jobs-careers-706807",
			Selector: ".srp-jobtuple-wrapper[data-job-id]",
			Source:   naukriSource,
			Guide:    NaukriGuide,
		},
		{
			URL:      "https://www.naukri.com/swiggy-jobs?k=swiggy",
			Selector: ".srp-jobtuple-wrapper",
			Source:   naukriSource,
			Guide:    NaukriGuide,
		},
		{
			URL:      "https://www.naukri.com/zepto-jobs?k=zepto&nignbevent_src=jobsearchDeskGNB",
			Selector: ".srp-jobtuple-wrapper",
			Source:   naukriSource,
			Guide:    NaukriGuide,
		},
	}
}

// LoadSites reads a YAML list of sites from path. Source and Guide default
// to the Naukri values when omitted.
func LoadSites(path string) ([]Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}

	var sites []Site
	if err := yaml.Unmarshal(data, &sites); err != nil {
		return nil, fmt.Errorf("parse sites file: %w", err)
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("sites file %s lists no sites", path)
	}

	for i := range sites {
		s := &sites[i]
		if s.URL == "" || s.Selector == "" {
			return nil, fmt.Errorf("sites[%d]: url and selector are required", i)
		}
		if s.Source == "" {
			s.Source = naukriSource
		}
		if s.Guide == "" {
			s.Guide = NaukriGuide
		}
	}
	return sites, nil
}

// Sites resolves the registry for cfg: the YAML file when configured,
// the built-in list otherwise.
func (c *Config) Sites() ([]Site, error) {
	if c.SitesFile == "" {
		return DefaultSites(), nil
	}
	return LoadSites(c.SitesFile)
}
