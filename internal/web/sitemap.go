package web

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mauryajatin45/blogfront/blog/domain"
)

const sitemapPostLimit = 1000

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap serves the crawl index: the static pages plus every post the API
// will list. A listing failure still yields the static entries.
func (h *Handler) Sitemap(c *gin.Context) {
	urls := []sitemapURL{
		{Loc: h.siteBase + "/", ChangeFreq: "weekly", Priority: "0.8"},
		{Loc: h.siteBase + "/login", ChangeFreq: "weekly", Priority: "0.8"},
		{Loc: h.siteBase + "/create-post", ChangeFreq: "weekly", Priority: "0.8"},
	}

	page, err := h.api.ListPosts(c.Request.Context(), domain.ListQuery{
		Page:  1,
		Sort:  domain.SortNewest,
		Limit: sitemapPostLimit,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to list posts for sitemap")
	}
	for i := range page.Posts {
		p := &page.Posts[i]
		lastMod := time.Now()
		if p.UpdatedAt != nil {
			lastMod = *p.UpdatedAt
		}
		urls = append(urls, sitemapURL{
			Loc:        h.siteBase + "/posts/" + p.ID,
			LastMod:    lastMod.UTC().Format(time.RFC3339),
			ChangeFreq: "weekly",
			Priority:   "0.9",
		})
	}

	out, err := xml.MarshalIndent(urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}, "", "  ")
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("Cache-Control", "s-maxage=3600, stale-while-revalidate=59")
	c.Writer.WriteString(xml.Header)
	c.Writer.Write(out)
}
