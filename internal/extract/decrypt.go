package extract

import (
	"encoding/base64"
	"math/big"
	"sort"
	"strconv"
)

// The getSources payload is encrypted with three stacked layers, each
// built from the same seeded primitives: a substitution alphabet from a
// Fisher-Yates shuffle, a columnar transposition, and a per-character
// seeded shift. Decryption reverses them layer by layer. The alphabet
// is printable ASCII 32..126.
const (
	cipherLayers  = 3
	charsetBase   = 32
	charsetSize   = 95
	keygenXORVal  = 247
	keygenShift   = 5
	lcgMultiplier = 1103515245
	lcgIncrement  = 12345
)

// decryptSources reverses the layered cipher and returns the embedded
// JSON document, or "" when the payload does not decrypt cleanly.
func decryptSources(encrypted, clientKey, secretKey string) string {
	key := deriveKey(secretKey, clientKey)

	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encrypted)
		if err != nil {
			return ""
		}
	}

	for layer := cipherLayers; layer > 0; layer-- {
		data = reverseLayer(data, key+strconv.Itoa(layer))
	}

	// The plaintext is framed as a 4-digit length prefix plus payload
	if len(data) < 4 {
		return ""
	}
	payloadLen, err := strconv.Atoi(string(data[:4]))
	if err != nil || payloadLen < 0 || 4+payloadLen > len(data) {
		return ""
	}
	return string(data[4 : 4+payloadLen])
}

// reverseLayer undoes one encryption layer keyed by layerKey
func reverseLayer(data []byte, layerKey string) []byte {
	seed := hash32(layerKey)
	next := func(n uint64) uint64 {
		seed = (seed*lcgMultiplier + lcgIncrement) & 0x7fffffff
		return seed % n
	}

	// Undo the seeded shift. Bytes outside the alphabet pass through.
	shifted := make([]byte, len(data))
	for i, c := range data {
		if c < charsetBase || c > charsetBase+charsetSize-1 {
			shifted[i] = c
			continue
		}
		r := int(next(charsetSize))
		idx := (int(c) - charsetBase - r + charsetSize) % charsetSize
		shifted[i] = byte(charsetBase + idx)
	}

	// Undo the columnar transposition
	transposed := reverseColumnar(shifted, layerKey)

	// Undo the substitution: the shuffled alphabet maps back onto the
	// identity alphabet position by position.
	shuffled := shuffledAlphabet(layerKey)
	inverse := make(map[byte]byte, charsetSize)
	for i, c := range shuffled {
		inverse[c] = byte(charsetBase + i)
	}

	out := make([]byte, len(transposed))
	for i, c := range transposed {
		if plain, ok := inverse[c]; ok {
			out[i] = plain
		} else {
			out[i] = c
		}
	}
	return out
}

// reverseColumnar reads the ciphertext back out of the transposition
// grid: columns were filled in sorted-key order, rows read in sequence.
func reverseColumnar(data []byte, key string) []byte {
	cols := len(key)
	if cols == 0 {
		return data
	}
	rows := (len(data) + cols - 1) / cols

	grid := make([]byte, rows*cols)
	for i := range grid {
		grid[i] = ' '
	}

	order := make([]int, cols)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return key[order[a]] < key[order[b]]
	})

	i := 0
	for _, col := range order {
		for row := 0; row < rows && i < len(data); row++ {
			grid[row*cols+col] = data[i]
			i++
		}
	}

	return grid
}

// shuffledAlphabet produces the substitution alphabet for a layer via a
// seeded Fisher-Yates shuffle.
func shuffledAlphabet(key string) []byte {
	alphabet := make([]byte, charsetSize)
	for i := range alphabet {
		alphabet[i] = byte(charsetBase + i)
	}

	seed := hash32(key)
	for i := charsetSize - 1; i > 0; i-- {
		seed = (seed*lcgMultiplier + lcgIncrement) & 0x7fffffff
		j := seed % uint64(i+1)
		alphabet[i], alphabet[j] = alphabet[j], alphabet[i]
	}
	return alphabet
}

// hash32 is the 31-multiplier string hash the player uses for seeding,
// masked to 32 bits at every step.
func hash32(s string) uint64 {
	var h uint64
	for i := 0; i < len(s); i++ {
		h = (h*31 + uint64(s[i])) & 0xffffffff
	}
	return h
}

// deriveKey combines the remote secret key with the per-request client
// key. The hash grows without bound, so it needs arbitrary precision to
// match the player's BigInt arithmetic.
func deriveKey(secretKey, clientKey string) string {
	combined := secretKey + clientKey

	hash := big.NewInt(0)
	for i := 0; i < len(combined); i++ {
		prev := new(big.Int).Set(hash)
		hash.Mul(prev, big.NewInt(31))
		hash.Add(hash, new(big.Int).Lsh(prev, 7))
		hash.Sub(hash, prev)
		hash.Add(hash, big.NewInt(int64(combined[i])))
	}
	hash.Abs(hash)

	mod := new(big.Int).Mod(hash, new(big.Int).SetUint64(0x7fffffffffffffff))
	n := mod.Int64()
	if n < 0 {
		n = -n
	}

	xored := make([]byte, len(combined))
	for i := 0; i < len(combined); i++ {
		xored[i] = combined[i] ^ keygenXORVal
	}

	pivot := (int(n%int64(len(xored))) + keygenShift) % len(xored)
	rotated := append(append([]byte{}, xored[pivot:]...), xored[:pivot]...)

	// Interleave with the reversed client key
	reversed := make([]byte, len(clientKey))
	for i := 0; i < len(clientKey); i++ {
		reversed[i] = clientKey[len(clientKey)-1-i]
	}

	maxLen := len(rotated)
	if len(reversed) > maxLen {
		maxLen = len(reversed)
	}
	var mixed []byte
	for i := 0; i < maxLen; i++ {
		if i < len(rotated) {
			mixed = append(mixed, rotated[i])
		}
		if i < len(reversed) {
			mixed = append(mixed, reversed[i])
		}
	}

	limit := 96 + int(n%33)
	if limit > len(mixed) {
		limit = len(mixed)
	}
	mixed = mixed[:limit]

	for i, c := range mixed {
		mixed[i] = byte(int(c)%charsetSize + charsetBase)
	}
	return string(mixed)
}
