// Package output serializes the crawl's two terminal artifacts described
// in spec.md §6: the discovered-URL list and the failed-URL report.
package output

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dnovak/webscout/pkg/fileutil"
)

// WriteDiscovered writes urls as an ASCII-sorted, newline-terminated text
// file, one URL per line.
func WriteDiscovered(path string, urls []string) error {
	sorted := make([]string, len(urls))
	copy(sorted, urls)
	sort.Strings(sorted)

	var b strings.Builder
	for _, u := range sorted {
		b.WriteString(u)
		b.WriteByte('\n')
	}

	if classified := fileutil.WriteFileAtomic(path, []byte(b.String()), 0644); classified != nil {
		return classified
	}
	return nil
}

type failedURL struct {
	URL       string   `yaml:"url"`
	Referrers []string `yaml:"referrers"`
}

type failedGroup struct {
	Error string      `yaml:"error"`
	URLs  []failedURL `yaml:"urls"`
}

// WriteFailed writes failed as the YAML document spec.md §6 describes: a
// top-level sequence grouped by error string, each group's URLs sorted
// ASCII and carrying their ASCII-sorted referrers (or an explicit empty
// list when none exist). referrersOf looks up a URL's referrer snapshot;
// it must never return a value the caller mutates afterward.
func WriteFailed(path string, failed map[string]string, referrersOf func(url string) []string) error {
	byError := make(map[string][]string)
	for u, errMsg := range failed {
		byError[errMsg] = append(byError[errMsg], u)
	}

	errors := make([]string, 0, len(byError))
	for e := range byError {
		errors = append(errors, e)
	}
	sort.Strings(errors)

	groups := make([]failedGroup, 0, len(errors))
	for _, e := range errors {
		urls := byError[e]
		sort.Strings(urls)

		entries := make([]failedURL, 0, len(urls))
		for _, u := range urls {
			refs := referrersOf(u)
			if refs == nil {
				refs = []string{}
			} else {
				sorted := make([]string, len(refs))
				copy(sorted, refs)
				sort.Strings(sorted)
				refs = sorted
			}
			entries = append(entries, failedURL{URL: u, Referrers: refs})
		}
		groups = append(groups, failedGroup{Error: e, URLs: entries})
	}

	data, err := yaml.Marshal(groups)
	if err != nil {
		return err
	}

	if classified := fileutil.WriteFileAtomic(path, data, 0644); classified != nil {
		return classified
	}
	return nil
}
