package sync

import (
	"bytes"
	"embed"
	"io"
	"io/fs"
	"os"
	"path"
)

// DefaultProfilesFile is the name of the built-in profile definitions under the embedded root.
const DefaultProfilesFile = "default.yaml"

//go:embed profiles/*.yaml
var builtinProfiles embed.FS

type ProfileFile struct {
	Name   string
	Reader io.Reader
	Length int
}

type EmbeddedProfiles struct {
	Root  string
	Files EmbeddedFS
}

type EmbeddedFS interface {
	Open(name string) (fs.File, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
}

// BuiltinProfiles returns the profile definitions compiled into the binary.
func BuiltinProfiles() EmbeddedProfiles {
	return EmbeddedProfiles{Root: "profiles", Files: builtinProfiles}
}

func (ep EmbeddedProfiles) MustFindProfileFile(filename string) (ProfileFile, error) {
	var result ProfileFile
	name := path.Join(ep.Root, filename)
	content, err := ep.Files.ReadFile(name)
	if err == nil {
		result = newProfileFile(name, content)
	}
	return result, err
}

func (ep EmbeddedProfiles) MustFindDefaultProfileFile() (ProfileFile, error) {
	return ep.MustFindProfileFile(DefaultProfilesFile)
}

// ReadProfileFile reads a user supplied profile file from disk.
func ReadProfileFile(name string) (ProfileFile, error) {
	var result ProfileFile
	content, err := os.ReadFile(name)
	if err == nil {
		result = newProfileFile(name, content)
	}
	return result, err
}

func newProfileFile(name string, content []byte) ProfileFile {
	return ProfileFile{
		Name:   name,
		Reader: bytes.NewReader(content),
		Length: len(content),
	}
}
