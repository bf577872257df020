// Package catalog resolves a store catalog reference into the set of
// downloadable package links the lookup service knows for it.
package catalog

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/schrebra/storeappx/internal/arch"
	"github.com/schrebra/storeappx/internal/client"
	"github.com/schrebra/storeappx/internal/infrastructure/logging"
	"github.com/schrebra/storeappx/internal/infrastructure/resilience"
)

// Resolver turns a catalog reference into candidate package links.
type Resolver struct {
	client   *client.Client
	endpoint string
	ring     string
	breaker  *resilience.Breaker
	log      *logging.Logger
}

// NewResolver creates a resolver against the catalog-lookup service.
func NewResolver(c *client.Client, endpoint, ring string, log *logging.Logger) *Resolver {
	if log == nil {
		log = logging.NewNop()
	}
	breaker := resilience.New("catalog", resilience.Settings{
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("Circuit breaker changed state",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})
	return &Resolver{client: c, endpoint: endpoint, ring: ring, breaker: breaker, log: log}
}

// Resolve sends one lookup request for reference and extracts every
// hyperlink naming a recognized package file. Zero links is a valid
// result; callers treat it as nothing to do. Repeated lookup failures
// trip a breaker that fails subsequent resolutions without touching
// the network.
func (r *Resolver) Resolve(ctx context.Context, reference string) ([]CandidateLink, error) {
	var links []CandidateLink
	err := r.breaker.Do(func() error {
		var lookupErr error
		links, lookupErr = r.lookup(ctx, reference)
		return lookupErr
	})
	if errors.Is(err, resilience.ErrOpen) || errors.Is(err, resilience.ErrProbing) {
		return nil, &ResolutionError{Reference: reference, Err: err}
	}
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *Resolver) lookup(ctx context.Context, reference string) ([]CandidateLink, error) {
	req, err := r.client.Request(ctx)
	if err != nil {
		return nil, &ResolutionError{Reference: reference, Err: err}
	}

	resp, err := req.
		SetFormData(map[string]string{
			"type": "url",
			"url":  reference,
			"ring": r.ring,
		}).
		Post(r.endpoint)
	if err != nil {
		return nil, &ResolutionError{Reference: reference, Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &ResolutionError{Reference: reference, Status: resp.StatusCode()}
	}

	links, err := extractLinks(resp.Body())
	if err != nil {
		return nil, &ResolutionError{Reference: reference, Err: err}
	}

	if len(links) == 0 {
		r.log.Info("Catalog lookup returned no package links",
			zap.String("reference", reference))
	} else {
		r.log.Debug("Catalog lookup resolved links",
			zap.String("reference", reference),
			zap.Int("count", len(links)))
	}

	return links, nil
}

// extractLinks walks every anchor in the payload and keeps those naming a
// package file.
func extractLinks(payload []byte) ([]CandidateLink, error) {
	doc, err := parseHTML(payload)
	if err != nil {
		return nil, err
	}

	links := []CandidateLink{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists || href == "" || href == "#" {
			return
		}
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			return
		}

		name := displayName(sel.Text(), href)
		cls, ok := ClassifyName(name)
		if !ok {
			return
		}

		links = append(links, CandidateLink{
			URL:  href,
			Name: name,
			Arch: arch.Classify(name),
			Ext:  cls,
		})
	})

	return dedupeLinks(links), nil
}

// displayName prefers the anchor text; when the text names no package file
// it falls back to the href path base.
func displayName(text, href string) string {
	name := strings.TrimSpace(text)
	if _, ok := ClassifyName(name); ok {
		return name
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return name
	}
	if base := path.Base(parsed.Path); base != "." && base != "/" {
		return base
	}
	return name
}
