// Package releasename infers structured metadata from anime release names.
//
// Release names in the wild look like
//
//	[SubsPlease] Sousou no Frieren - 28 (1080p) [F02B9CEE].mkv
//	[Erai-raws] Spy x Family S02E05 [720p][Multiple Subtitle]
//	[Judas] Vinland Saga (Season 2) [1080p][HEVC x265] (Batch)
//
// and the parser runs an ordered cascade of heuristics: metadata tokens
// (group, CRC, resolution, year) are stripped first so that their digits can
// never be mistaken for episode numbers, then batch/range markers are
// checked, then episode inference runs from the most explicit pattern to the
// least. An explicit SxxExx always beats positional heuristics.
package releasename

import (
	"regexp"
	"strconv"
	"strings"
)

// Metadata is the structured form of a release name.
type Metadata struct {
	Title        string `json:"title"`
	Episode      int    `json:"episode,omitempty"`
	EpisodeStart int    `json:"episode_start,omitempty"`
	EpisodeEnd   int    `json:"episode_end,omitempty"`
	Season       int    `json:"season,omitempty"`
	SeasonEnd    int    `json:"season_end,omitempty"`
	Version      int    `json:"version,omitempty"`
	Year         int    `json:"year,omitempty"`
	Resolution   string `json:"resolution,omitempty"`
	ReleaseGroup string `json:"release_group,omitempty"`
	CRC          string `json:"crc,omitempty"`
	Batch        bool   `json:"batch"`
}

var (
	extRe   = regexp.MustCompile(`(?i)\.(mkv|mp4|avi|webm|ts|m2ts)$`)
	groupRe = regexp.MustCompile(`^\[([^\]]+)\]\s*`)
	crcRe   = regexp.MustCompile(`[\[(]([0-9A-F]{8})[)\]]`)

	resolutionRe = regexp.MustCompile(`(?i)\b(2160|1440|1080|720|576|480|360)p\b`)
	dimensionRe  = regexp.MustCompile(`(?i)\b\d{3,4}[x×](\d{3,4})\b`)
	fourKRe      = regexp.MustCompile(`(?i)[\[( ]4k[\]) ]`)

	yearRe = regexp.MustCompile(`[\[(]((?:19|20)\d{2})[)\]]`)

	seasonRangeRe   = regexp.MustCompile(`(?i)\bS(\d{1,2})\s*-\s*S?0*(\d{1,2})\b`)
	sxxExxRe        = regexp.MustCompile(`(?i)\bS(\d{1,2})[ ._-]?E(\d{1,4})(?:[-~]E?(\d{1,4}))?(?:v(\d))?\b`)
	seasonWordRe    = regexp.MustCompile(`(?i)\bseason[ ._-]?(\d{1,2})\b`)
	ordinalSeasonRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)[ ._-]season\b`)
	seasonShortRe   = regexp.MustCompile(`(?i)\bS(\d{1,2})\b`)

	epRangeRe   = regexp.MustCompile(`(?:^|[\s(\[])0*(\d{1,4})\s*[-~]\s*0*(\d{1,4})(?:[\s)\]]|$)`)
	batchWordRe = regexp.MustCompile(`(?i)[\[( ](batch|complete(?:\sseries)?)[\]) ]?`)
	plusExtraRe = regexp.MustCompile(`(?i)\+\s*(?:OVAs?|OADs?|ONAs?|Specials?|Movies?)\b`)
	volRangeRe  = regexp.MustCompile(`(?i)\bvol(?:ume)?s?\.?\s*0*(\d{1,3})\s*[-~]\s*0*(\d{1,3})\b`)

	dashEpRe      = regexp.MustCompile(` [-–] 0*(\d{1,4})(?:\.\d)?(?:v(\d))?(?:$|[ .\[(])`)
	epWordRe      = regexp.MustCompile(`(?i)\b(?:ep|episode|e)[ ._]?0*(\d{1,4})(?:v(\d))?\b`)
	trailingNumRe = regexp.MustCompile(` 0*(\d{1,4})(?:v(\d))?$`)

	// Tokens that carry digits but never episode numbers.
	codecRe = regexp.MustCompile(`(?i)\b(?:[xh]\.?26[45]|av1|10-?bit|hi10p?|flac|aac|opus|dual.audio|multi.?sub(?:title)?s?|web-?(?:dl|rip)|bd(?:rip)?|blu-?ray)\b`)

	bracketRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	spacesRe  = regexp.MustCompile(`\s+`)
)

// Parse extracts metadata from a single release or file name.
// Parsing is pure: equal inputs always produce equal outputs.
func Parse(name string) Metadata {
	var m Metadata

	work := strings.TrimSpace(extRe.ReplaceAllString(name, ""))
	if work == "" {
		return m
	}

	// Release group prefix: [Group] Title ...
	if g := groupRe.FindStringSubmatch(work); g != nil {
		m.ReleaseGroup = g[1]
		work = strings.TrimSpace(work[len(g[0]):])
	}

	// Dot/underscore separated names are normalized to spaces before any
	// positional heuristic runs.
	if !strings.Contains(work, " ") {
		work = strings.NewReplacer("_", " ", ".", " ").Replace(work)
	} else {
		work = strings.ReplaceAll(work, "_", " ")
	}

	// Strip metadata tokens whose digits must never become episode numbers.
	if c := crcRe.FindStringSubmatch(work); c != nil {
		m.CRC = c[1]
		work = strings.Replace(work, c[0], " ", 1)
	}
	if r := resolutionRe.FindStringSubmatch(work); r != nil {
		m.Resolution = r[1] + "p"
		work = strings.Replace(work, r[0], " ", 1)
	} else if d := dimensionRe.FindStringSubmatch(work); d != nil {
		m.Resolution = d[1] + "p"
		work = strings.Replace(work, d[0], " ", 1)
	} else if f := fourKRe.FindString(work); f != "" {
		m.Resolution = "2160p"
		work = strings.Replace(work, f, " ", 1)
	}
	if y := yearRe.FindStringSubmatch(work); y != nil {
		m.Year = atoi(y[1])
		work = strings.Replace(work, y[0], " ", 1)
	}
	work = codecRe.ReplaceAllString(work, " ")
	work = spacesRe.ReplaceAllString(work, " ")

	cut := len(work)

	// Season range (S1-S3) is a batch by definition.
	if sr := seasonRangeRe.FindStringSubmatchIndex(work); sr != nil {
		m.Season = atoi(work[sr[2]:sr[3]])
		m.SeasonEnd = atoi(work[sr[4]:sr[5]])
		m.Batch = true
		cut = min(cut, sr[0])
	}

	// Explicit SxxExx wins over everything positional.
	if se := sxxExxRe.FindStringSubmatchIndex(work); se != nil {
		m.Season = atoi(work[se[2]:se[3]])
		ep := atoi(work[se[4]:se[5]])
		if se[6] >= 0 {
			// SxxExx-Eyy is an episode range, hence a batch.
			m.EpisodeStart = ep
			m.EpisodeEnd = atoi(work[se[6]:se[7]])
			m.Batch = true
		} else {
			m.Episode = ep
		}
		if se[8] >= 0 {
			m.Version = atoi(work[se[8]:se[9]])
		}
		cut = min(cut, se[0])
	} else {
		// Episode range: (01-24), 01 ~ 24, " 01-12".
		if er := epRangeRe.FindStringSubmatchIndex(work); er != nil {
			lo := atoi(work[er[2]:er[3]])
			hi := atoi(work[er[4]:er[5]])
			if lo < hi && hi < 1900 {
				m.EpisodeStart = lo
				m.EpisodeEnd = hi
				m.Batch = true
				cut = min(cut, er[0])
			}
		}

		if !m.Batch {
			// Episode inference cascade, most explicit first.
			if de := dashEpRe.FindStringSubmatchIndex(work); de != nil {
				m.Episode = atoi(work[de[2]:de[3]])
				if de[4] >= 0 {
					m.Version = atoi(work[de[4]:de[5]])
				}
				cut = min(cut, de[0])
			} else if ew := epWordRe.FindStringSubmatchIndex(work); ew != nil {
				m.Episode = atoi(work[ew[2]:ew[3]])
				if ew[4] >= 0 {
					m.Version = atoi(work[ew[4]:ew[5]])
				}
				cut = min(cut, ew[0])
			} else if tn := trailingNumRe.FindStringSubmatchIndex(work); tn != nil {
				// Last resort: a standalone trailing number that is not the
				// whole title and cannot be a year.
				n := atoi(work[tn[2]:tn[3]])
				if tn[0] > 0 && n < 1900 {
					m.Episode = n
					if tn[4] >= 0 {
						m.Version = atoi(work[tn[4]:tn[5]])
					}
					cut = min(cut, tn[0])
				}
			}
		}
	}

	// Season words when SxxExx did not already set one.
	if m.Season == 0 {
		if sw := seasonWordRe.FindStringSubmatchIndex(work); sw != nil {
			m.Season = atoi(work[sw[2]:sw[3]])
			cut = min(cut, sw[0])
		} else if om := ordinalSeasonRe.FindStringSubmatchIndex(work); om != nil {
			m.Season = atoi(work[om[2]:om[3]])
			cut = min(cut, om[0])
		} else if ss := seasonShortRe.FindStringSubmatchIndex(work); ss != nil {
			m.Season = atoi(work[ss[2]:ss[3]])
			cut = min(cut, ss[0])
		}
	}

	if bw := batchWordRe.FindStringSubmatchIndex(work); bw != nil {
		m.Batch = true
		cut = min(cut, bw[0])
	}

	// "+ OVA" style extras and volume ranges are packs too.
	if pe := plusExtraRe.FindStringSubmatchIndex(work); pe != nil {
		m.Batch = true
		cut = min(cut, pe[0])
	}
	if vr := volRangeRe.FindStringSubmatchIndex(work); vr != nil {
		m.Batch = true
		cut = min(cut, vr[0])
	}

	m.Title = cleanTitle(work[:cut])
	return m
}

// cleanTitle strips leftover bracket groups and separator debris.
func cleanTitle(s string) string {
	s = bracketRe.ReplaceAllString(s, " ")
	s = spacesRe.ReplaceAllString(s, " ")
	s = strings.Trim(s, " -–_.([)]")
	return s
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
