package docpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// These expectations are pinned on purpose: the shard mapping is a
// durability contract, and files already on disk depend on it.
func TestShardDir(t *testing.T) {
	tests := []struct {
		doi  string
		want string
	}{
		{"10.1.1.1.1", "10/1/1/1/1"},
		{"10.1.1.42.7", "10/1/1/42/7"},
		{"10.1.1.100.1000", "10/1/1/100/1000"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.doi, func(t *testing.T) {
			assert.Equal(t, tt.want, ShardDir(tt.doi))
		})
	}
}

func TestShardDir_Stable(t *testing.T) {
	first := ShardDir("10.1.1.42.7")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, ShardDir("10.1.1.42.7"))
	}
}

func TestXMLPath(t *testing.T) {
	assert.Equal(t, "10/1/1/1/1/10.1.1.1.1.xml", XMLPath("10.1.1.1.1"))
}

func TestArtifactPath(t *testing.T) {
	assert.Equal(t, "10/1/1/1/1/10.1.1.1.1.pdf", ArtifactPath("10.1.1.1.1", "PDF"))
	assert.Equal(t, "10/1/1/1/1/10.1.1.1.1.ps", ArtifactPath("10.1.1.1.1", "ps"))
}

func TestVersionPath(t *testing.T) {
	assert.Equal(t, "10/1/1/1/1/versions/10.1.1.1.1.v2.xml", VersionPath("10.1.1.1.1", 2))
	assert.Equal(t, "10/1/1/1/1/versions/10.1.1.1.1.v0.xml", VersionPath("10.1.1.1.1", 0))
}
