package extract

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forwardLayer applies one encryption layer, the exact inverse of
// reverseLayer: substitution, then transposition, then seeded shift.
func forwardLayer(data []byte, layerKey string) []byte {
	shuffled := shuffledAlphabet(layerKey)

	substituted := make([]byte, len(data))
	for i, c := range data {
		if c >= charsetBase && c <= charsetBase+charsetSize-1 {
			substituted[i] = shuffled[int(c)-charsetBase]
		} else {
			substituted[i] = c
		}
	}

	transposed := forwardColumnar(substituted, layerKey)

	seed := hash32(layerKey)
	next := func(n uint64) uint64 {
		seed = (seed*lcgMultiplier + lcgIncrement) & 0x7fffffff
		return seed % n
	}

	out := make([]byte, len(transposed))
	for i, c := range transposed {
		if c < charsetBase || c > charsetBase+charsetSize-1 {
			out[i] = c
			continue
		}
		r := int(next(charsetSize))
		out[i] = byte(charsetBase + (int(c)-charsetBase+r)%charsetSize)
	}
	return out
}

// forwardColumnar pads the plaintext into a grid and reads it out
// column by column in sorted key order.
func forwardColumnar(data []byte, key string) []byte {
	cols := len(key)
	rows := (len(data) + cols - 1) / cols

	grid := make([]byte, rows*cols)
	for i := range grid {
		if i < len(data) {
			grid[i] = data[i]
		} else {
			grid[i] = ' '
		}
	}

	order := make([]int, cols)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return key[order[a]] < key[order[b]]
	})

	var out []byte
	for _, col := range order {
		for row := 0; row < rows; row++ {
			out = append(out, grid[row*cols+col])
		}
	}
	return out
}

// encryptSources mirrors the player's encryption for round-trip tests
func encryptSources(payload, clientKey, secretKey string) string {
	key := deriveKey(secretKey, clientKey)

	framed := []byte(fmt.Sprintf("%04d%s", len(payload), payload))
	for layer := 1; layer <= cipherLayers; layer++ {
		framed = forwardLayer(framed, key+strconv.Itoa(layer))
	}
	return base64.StdEncoding.EncodeToString(framed)
}

func TestDecryptSourcesRoundTrip(t *testing.T) {
	payload := `[{"file":"https://cdn.example.org/master.m3u8","type":"hls"}]`
	clientKey := "kJ8pQ2xVn4mL7wRt"
	secretKey := "0a1b2c3d4e5f6a7b8c9d"

	encrypted := encryptSources(payload, clientKey, secretKey)
	decrypted := decryptSources(encrypted, clientKey, secretKey)

	assert.Equal(t, payload, decrypted)
}

func TestDecryptSourcesWrongKey(t *testing.T) {
	payload := `[{"file":"https://cdn.example.org/master.m3u8"}]`
	encrypted := encryptSources(payload, "clientKeyA", "secretKeyA")

	decrypted := decryptSources(encrypted, "clientKeyB", "secretKeyA")
	assert.NotEqual(t, payload, decrypted)
}

func TestDecryptSourcesGarbage(t *testing.T) {
	assert.Empty(t, decryptSources("not base64 at all!!!", "k", "s"))
	assert.Empty(t, decryptSources(base64.StdEncoding.EncodeToString([]byte("xy")), "k", "s"))
}

func TestDeriveKeyDeterministic(t *testing.T) {
	a := deriveKey("secret", "client")
	b := deriveKey("secret", "client")
	require.Equal(t, a, b)
	assert.NotEqual(t, a, deriveKey("secret", "other"))

	// The key stays inside the cipher alphabet
	for i := 0; i < len(a); i++ {
		assert.GreaterOrEqual(t, a[i], byte(charsetBase))
		assert.LessOrEqual(t, a[i], byte(charsetBase+charsetSize-1))
	}
}

func TestReverseColumnarInvertsForward(t *testing.T) {
	plain := []byte("the quick brown fox jumps over the lazy dog")
	key := "layerkey1"

	scrambled := forwardColumnar(plain, key)
	restored := reverseColumnar(scrambled, key)

	// Restoration includes grid padding, the prefix must match
	assert.Equal(t, string(plain), string(restored[:len(plain)]))
}
