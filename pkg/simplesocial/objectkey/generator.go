package objectkey

import (
	"crypto/sha256"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Generator defines the interface for asset key generation strategies.
// Self-hosted blob stores use the generated key as the asset id.
type Generator interface {
	// GenerateKey creates a storage key for a new asset
	GenerateKey(assetID uuid.UUID, metadata *KeyMetadata) string
}

// KeyMetadata contains information that influences key generation
type KeyMetadata struct {
	FileName    string
	ContentType string
	Folder      string // optional logical folder, e.g. "posts" or "avatars"
}

// FlatGenerator stores every asset directly under a single prefix:
// media/{uuid}[_filename]
type FlatGenerator struct {
	Prefix string
}

func NewFlatGenerator() *FlatGenerator {
	return &FlatGenerator{Prefix: "media"}
}

func (g *FlatGenerator) GenerateKey(assetID uuid.UUID, metadata *KeyMetadata) string {
	name := assetID.String()
	if metadata != nil && metadata.FileName != "" {
		name = fmt.Sprintf("%s_%s", name, sanitizeFilename(metadata.FileName))
	}
	return path.Join(g.Prefix, folderOf(metadata), name)
}

// GitLikeGenerator provides Git-style sharded keys:
// media/{folder}/objects/ab/cd1234ef5678[_filename]
type GitLikeGenerator struct {
	Prefix string
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int
}

func NewGitLikeGenerator() *GitLikeGenerator {
	return &GitLikeGenerator{
		Prefix:      "media",
		ShardLength: 2,
	}
}

func (g *GitLikeGenerator) GenerateKey(assetID uuid.UUID, metadata *KeyMetadata) string {
	idStr := strings.ReplaceAll(assetID.String(), "-", "")
	return shardedKey(g.Prefix, idStr, g.ShardLength, metadata)
}

// HashedGitLikeGenerator shards on a hash of the asset id, spreading keys
// evenly even when ids are sequential.
type HashedGitLikeGenerator struct {
	Prefix      string
	ShardLength int
}

func NewHashedGitLikeGenerator() *HashedGitLikeGenerator {
	return &HashedGitLikeGenerator{
		Prefix:      "media",
		ShardLength: 2,
	}
}

func (g *HashedGitLikeGenerator) GenerateKey(assetID uuid.UUID, metadata *KeyMetadata) string {
	hash := sha256.Sum256([]byte(assetID.String()))
	hashStr := fmt.Sprintf("%x", hash)[:24]
	return shardedKey(g.Prefix, hashStr, g.ShardLength, metadata)
}

// CustomFuncGenerator allows users to provide their own key generation function
type CustomFuncGenerator struct {
	GenerateFunc func(assetID uuid.UUID, metadata *KeyMetadata) string
}

func NewCustomFuncGenerator(fn func(assetID uuid.UUID, metadata *KeyMetadata) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{
		GenerateFunc: fn,
	}
}

func (g *CustomFuncGenerator) GenerateKey(assetID uuid.UUID, metadata *KeyMetadata) string {
	return g.GenerateFunc(assetID, metadata)
}

func shardedKey(prefix, id string, shardLength int, metadata *KeyMetadata) string {
	if shardLength <= 0 {
		shardLength = 2
	}
	if shardLength > len(id) {
		shardLength = len(id)
	}

	filename := id[shardLength:]
	if metadata != nil && metadata.FileName != "" {
		filename = fmt.Sprintf("%s_%s", filename, sanitizeFilename(metadata.FileName))
	}
	return path.Join(prefix, folderOf(metadata), "objects", id[:shardLength], filename)
}

func folderOf(metadata *KeyMetadata) string {
	if metadata == nil || metadata.Folder == "" {
		return ""
	}
	return sanitizePathComponent(metadata.Folder)
}

var unsafeChars = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "_",
	"#", "_",
	"%", "_",
)

// MaxFilenameLength caps the client filename kept in a key, in bytes. Longer
// names are cut, keeping a short extension.
const MaxFilenameLength = 100

// Helper functions for key sanitization. Keys end up in display URLs, so
// characters that need escaping there are replaced too.
func sanitizeFilename(filename string) string {
	name := unsafeChars.Replace(filename)
	if len(name) <= MaxFilenameLength {
		return name
	}
	ext := path.Ext(name)
	if len(ext) > 16 {
		ext = ""
	}
	return truncateUTF8(strings.TrimSuffix(name, ext), MaxFilenameLength-len(ext)) + ext
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func sanitizePathComponent(component string) string {
	return strings.ToLower(unsafeChars.Replace(component))
}

// NewRecommendedGenerator returns the recommended generator for new installations
func NewRecommendedGenerator() Generator {
	return NewGitLikeGenerator()
}
