package service

import (
	"fmt"
	"net/url"
	"strings"
)

type ReferenceFormat string

const (
	ReferenceFilename ReferenceFormat = "filename"
	ReferencePath     ReferenceFormat = "path"
	ReferenceURL      ReferenceFormat = "url"

	// UploadsPrefix is the URL path uploaded images are served under.
	UploadsPrefix = "/uploads/"
)

// ReferencePolicy renders every image reference in one format, chosen at startup.
type ReferencePolicy struct {
	format  ReferenceFormat
	baseURL string
	base    *url.URL
}

func NewReferencePolicy(format, publicBaseURL string) (*ReferencePolicy, error) {
	f := ReferenceFormat(strings.ToLower(strings.TrimSpace(format)))
	switch f {
	case "":
		f = ReferencePath
	case ReferenceFilename, ReferencePath, ReferenceURL:
	default:
		return nil, fmt.Errorf("unknown reference format %q", format)
	}
	if f == ReferenceURL && publicBaseURL == "" {
		return nil, fmt.Errorf("reference format %q requires a public base url", f)
	}

	p := &ReferencePolicy{
		format:  f,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}
	if p.baseURL != "" {
		base, err := url.Parse(p.baseURL)
		if err != nil || base.Scheme == "" || base.Host == "" {
			return nil, fmt.Errorf("invalid public base url %q", publicBaseURL)
		}
		p.base = base
	}
	return p, nil
}

func (p *ReferencePolicy) Format() ReferenceFormat {
	return p.format
}

// Normalize maps a reference to an uploaded image onto the policy format. Accepted inputs are a bare
// file name, UploadsPrefix + name, and the public base URL + UploadsPrefix + name. Anything else would
// lose information when rewritten and fails with a ValidationError on "reference".
func (p *ReferencePolicy) Normalize(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", referenceError(formatFieldError("required"))
	}
	name, ok := p.uploadName(ref)
	if !ok {
		return "", referenceError("Must reference an uploaded image")
	}
	return p.Render(name), nil
}

// Render turns a bare stored file name into a reference.
func (p *ReferencePolicy) Render(name string) string {
	switch p.format {
	case ReferenceFilename:
		return name
	case ReferenceURL:
		return p.baseURL + UploadsPrefix + name
	default:
		return UploadsPrefix + name
	}
}

func (p *ReferencePolicy) uploadName(ref string) (string, bool) {
	if strings.ContainsAny(ref, `\`) {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil || u.RawQuery != "" || u.Fragment != "" || u.ForceQuery || u.User != nil {
		return "", false
	}

	rest := u.Path
	if u.Scheme != "" || u.Host != "" {
		if p.base == nil || !strings.EqualFold(u.Scheme, p.base.Scheme) || !strings.EqualFold(u.Host, p.base.Host) {
			return "", false
		}
		basePath := strings.TrimRight(p.base.Path, "/")
		if !strings.HasPrefix(rest, basePath+UploadsPrefix) {
			return "", false
		}
		rest = strings.TrimPrefix(rest, basePath)
	}

	if strings.Contains(rest, "/") {
		if !strings.HasPrefix(rest, UploadsPrefix) {
			return "", false
		}
		rest = strings.TrimPrefix(rest, UploadsPrefix)
	}
	if rest == "" || rest == "." || rest == ".." || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

func referenceError(msg string) error {
	return &ValidationError{Details: []FieldError{{Field: "reference", Message: msg}}}
}
