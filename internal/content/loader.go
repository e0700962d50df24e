// Package content загружает контент игры (персонажи, графы диалогов,
// достижения, арки, подарки) из YAML, проверяет его и держит текущий снимок.
package content

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"pathways-server/internal/domain"
	"pathways-server/internal/graph"
	"pathways-server/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed pack
var embeddedPack embed.FS

const (
	charactersFile   = "characters.yaml"
	achievementsFile = "achievements.yaml"
	arcsFile         = "arcs.yaml"
	giftsFile        = "gifts.yaml"
	graphsDir        = "graphs"
)

// DefaultFS returns the content pack compiled into the binary.
func DefaultFS() fs.FS {
	sub, err := fs.Sub(embeddedPack, "pack")
	if err != nil {
		panic(fmt.Sprintf("embedded content pack is broken: %v", err))
	}
	return sub
}

// Source returns the directory as a filesystem, or the embedded pack for an empty dir.
func Source(dir string) fs.FS {
	if strings.TrimSpace(dir) == "" {
		return DefaultFS()
	}
	return os.DirFS(dir)
}

type charactersDoc struct {
	Characters []domain.Character `yaml:"characters"`
}

type achievementsDoc struct {
	Achievements []domain.Achievement `yaml:"achievements"`
}

type arcsDoc struct {
	Arcs []domain.StoryArc `yaml:"arcs"`
}

type giftsDoc struct {
	Gifts []domain.Gift `yaml:"gifts"`
}

// Parse reads every content file into a bundle. The revision is a digest of
// all file bytes in path order.
func Parse(fsys fs.FS) (graph.Bundle, error) {
	var b graph.Bundle
	digest := sha256.New()

	read := func(name string, optional bool, out interface{}) error {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			if optional && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("read %s: %w", name, err)
		}
		digest.Write([]byte(name))
		digest.Write(data)
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: %s: %v", models.ErrInvalidContent, name, err)
		}
		return nil
	}

	var chars charactersDoc
	if err := read(charactersFile, false, &chars); err != nil {
		return b, err
	}
	var achievements achievementsDoc
	if err := read(achievementsFile, true, &achievements); err != nil {
		return b, err
	}
	var arcs arcsDoc
	if err := read(arcsFile, true, &arcs); err != nil {
		return b, err
	}
	var gifts giftsDoc
	if err := read(giftsFile, true, &gifts); err != nil {
		return b, err
	}

	entries, err := fs.ReadDir(fsys, graphsDir)
	if err != nil {
		return b, fmt.Errorf("read %s: %w", graphsDir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := path.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		var g domain.DialogueGraph
		if err := read(path.Join(graphsDir, name), false, &g); err != nil {
			return b, err
		}
		if g.CharacterID == "" {
			g.CharacterID = strings.TrimSuffix(name, path.Ext(name))
		}
		b.Graphs = append(b.Graphs, g)
	}

	b.Characters = chars.Characters
	b.Achievements = achievements.Achievements
	b.Arcs = arcs.Arcs
	b.Gifts = gifts.Gifts
	b.Revision = hex.EncodeToString(digest.Sum(nil))[:12]
	return b, nil
}

// Load parses, indexes and validates content. Warnings are returned alongside
// the library; any error-level issue fails the load.
func Load(fsys fs.FS) (*graph.Library, []Issue, error) {
	b, err := Parse(fsys)
	if err != nil {
		return nil, nil, err
	}
	lib, err := graph.NewLibrary(b)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrInvalidContent, err)
	}
	issues := Validate(lib)
	if errs := Errors(issues); len(errs) > 0 {
		return nil, issues, fmt.Errorf("%w: %d error(s), first: %s", models.ErrInvalidContent, len(errs), errs[0])
	}
	return lib, issues, nil
}
