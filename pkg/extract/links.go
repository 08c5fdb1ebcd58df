// Package extract provides the stock document handler: it parses fetched
// HTML and feeds every discovered anchor link back into the crawl.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"webspider/pkg/fetch"
	"webspider/pkg/spider"
)

// Links returns a Handler that extracts the href of every <a> element in
// an HTML response, resolves it against the final URL, and submits it.
// Non-HTML responses are skipped. Admission (domain filter, dedup) is
// the engine's job; this handler submits everything it finds.
func Links(log *logrus.Logger) spider.Handler {
	return func(ctx context.Context, resp *fetch.Response, submit spider.Submitter) error {
		contentType := strings.ToLower(resp.ContentType())
		if contentType != "" && !strings.Contains(contentType, "html") {
			log.WithFields(logrus.Fields{"url": resp.URL.String(), "content_type": contentType}).
				Debug("Skipping link extraction for non-HTML response")
			return nil
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			return fmt.Errorf("parsing HTML from '%s': %w", resp.URL.String(), err)
		}

		found := 0
		doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			href, exists := sel.Attr("href")
			if !exists {
				return
			}
			href = strings.TrimSpace(href)
			if href == "" || strings.HasPrefix(href, "#") ||
				strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
				return
			}
			absolute, joinErr := resp.URLJoin(href)
			if joinErr != nil {
				log.WithField("href", href).Debugf("Skipping unresolvable link: %v", joinErr)
				return
			}
			submit.AddTask(absolute)
			found++
		})

		log.WithFields(logrus.Fields{"url": resp.URL.String(), "links": found}).Debug("Extracted links")
		return nil
	}
}
