package releasename

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSingleEpisodes(t *testing.T) {
	cases := []struct {
		name     string
		expected Metadata
	}{
		{
			"[SubsPlease] Sousou no Frieren - 28 (1080p) [F02B9CEE].mkv",
			Metadata{
				Title:        "Sousou no Frieren",
				Episode:      28,
				Resolution:   "1080p",
				ReleaseGroup: "SubsPlease",
				CRC:          "F02B9CEE",
			},
		},
		{
			"[Erai-raws] Spy x Family S02E05 [720p]",
			Metadata{
				Title:        "Spy x Family",
				Season:       2,
				Episode:      5,
				Resolution:   "720p",
				ReleaseGroup: "Erai-raws",
			},
		},
		{
			"Dr.Stone.S02E11.1080p.WEB.x264.mkv",
			Metadata{
				Title:      "Dr Stone",
				Season:     2,
				Episode:    11,
				Resolution: "1080p",
			},
		},
		{
			"[ASW] Mushoku Tensei - 11v2 (1080p HEVC).mkv",
			Metadata{
				Title:        "Mushoku Tensei",
				Episode:      11,
				Version:      2,
				Resolution:   "1080p",
				ReleaseGroup: "ASW",
			},
		},
		{
			// The 100 in the title must not become the episode number.
			"Mob Psycho 100 - 05 (720p)",
			Metadata{
				Title:      "Mob Psycho 100",
				Episode:    5,
				Resolution: "720p",
			},
		},
		{
			"Kaguya-sama wa Kokurasetai 3rd Season - 05",
			Metadata{
				Title:   "Kaguya-sama wa Kokurasetai",
				Season:  3,
				Episode: 5,
			},
		},
		{
			// Trailing standalone number as a last resort.
			"[Group] Yofukashi no Uta 03.mkv",
			Metadata{
				Title:        "Yofukashi no Uta",
				Episode:      3,
				ReleaseGroup: "Group",
			},
		},
	}

	for _, tc := range cases {
		got := Parse(tc.name)
		assert.Equal(t, tc.expected, got, tc.name)
	}
}

func TestParseBatches(t *testing.T) {
	cases := []struct {
		name     string
		expected Metadata
	}{
		{
			"Naruto Shippuuden (001-500) [Complete]",
			Metadata{
				Title:        "Naruto Shippuuden",
				EpisodeStart: 1,
				EpisodeEnd:   500,
				Batch:        true,
			},
		},
		{
			"[Judas] Vinland Saga (Season 2) [1080p][HEVC x265] (Batch)",
			Metadata{
				Title:        "Vinland Saga",
				Season:       2,
				Resolution:   "1080p",
				ReleaseGroup: "Judas",
				Batch:        true,
			},
		},
		{
			"Shingeki no Kyojin S01-S03 [BD 1080p]",
			Metadata{
				Title:      "Shingeki no Kyojin",
				Season:     1,
				SeasonEnd:  3,
				Resolution: "1080p",
				Batch:      true,
			},
		},
		{
			"[Erai-raws] Great Teacher Onizuka + OVA [BD 720p]",
			Metadata{
				Title:        "Great Teacher Onizuka",
				Resolution:   "720p",
				ReleaseGroup: "Erai-raws",
				Batch:        true,
			},
		},
		{
			"[Anon] Berserk Vol.01-14 [BD 1080p]",
			Metadata{
				Title:        "Berserk",
				Resolution:   "1080p",
				ReleaseGroup: "Anon",
				Batch:        true,
			},
		},
		{
			"[Anon] Bocchi the Rock! S01E01-E12 [1080p]",
			Metadata{
				Title:        "Bocchi the Rock!",
				Season:       1,
				EpisodeStart: 1,
				EpisodeEnd:   12,
				Resolution:   "1080p",
				ReleaseGroup: "Anon",
				Batch:        true,
			},
		},
	}

	for _, tc := range cases {
		got := Parse(tc.name)
		assert.Equal(t, tc.expected, got, tc.name)
	}
}

func TestParseMetadataDigitsAreNotEpisodes(t *testing.T) {
	// Resolution, year and CRC digits must never be inferred as episodes.
	m := Parse("One Piece Film Red (2022) [1080p]")
	assert.Equal(t, 0, m.Episode)
	assert.Equal(t, 2022, m.Year)
	assert.Equal(t, "1080p", m.Resolution)
	assert.Equal(t, "One Piece Film Red", m.Title)

	m = Parse("[Team] Show - 04 (1920x1080) [ABCD1234]")
	assert.Equal(t, 4, m.Episode)
	assert.Equal(t, "1080p", m.Resolution)
	assert.Equal(t, "ABCD1234", m.CRC)

	m = Parse("Movie Name 4K Remaster")
	assert.Equal(t, 0, m.Episode)
	assert.Equal(t, "2160p", m.Resolution)
}

func TestParseIsDeterministic(t *testing.T) {
	name := "[SubsPlease] Sousou no Frieren - 28 (1080p) [F02B9CEE].mkv"
	first := Parse(name)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Parse(name))
	}
}

func TestParseEmpty(t *testing.T) {
	m := Parse("")
	assert.Equal(t, Metadata{}, m)
}
