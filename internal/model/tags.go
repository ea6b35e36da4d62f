package model

import "strings"

// NormalizeTags lower-cases, trims and de-duplicates tags, dropping empties.
func NormalizeTags(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ParseTags splits a comma separated list as typed into a form.
func ParseTags(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(csv, ","))
}

// JoinTags is the storage form of a tag list.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}
