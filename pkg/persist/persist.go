package persist

import (
	"fmt"
	"os"
	"path/filepath"
)

// Directory permissions for artifact directories.
const dirPerm = 0o750

// SaveArtifact writes the artifact to dir/basename with the codec's
// extension, creating the directory if needed.
func SaveArtifact(dir, basename string, codec Codec, artifact any) error {
	err := os.MkdirAll(dir, dirPerm)
	if err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	path := filepath.Join(dir, basename+codec.Extension())

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create artifact file: %w", err)
	}
	defer file.Close()

	err = codec.Encode(file, artifact)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	return nil
}

// LoadArtifact reads dir/basename with the codec's extension into artifact,
// which must be a pointer to the target type.
func LoadArtifact(dir, basename string, codec Codec, artifact any) error {
	path := filepath.Join(dir, basename+codec.Extension())

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open artifact file: %w", err)
	}
	defer file.Close()

	err = codec.Decode(file, artifact)
	if err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}

	return nil
}
