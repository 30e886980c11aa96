package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/annel0/skirmish/internal/params"
	"gopkg.in/yaml.v3"
)

// file - формат YAML файла контента. Один файл может содержать
// записи любых видов.
type file struct {
	Skills   []skillRecord   `yaml:"skills"`
	Monsters []monsterRecord `yaml:"monsters"`
	Affixes  []affixRecord   `yaml:"affixes"`
}

type skillRecord struct {
	ID     string                 `yaml:"id"`
	Ref    string                 `yaml:"ref"`
	Params map[string]interface{} `yaml:"params"`
}

type monsterRecord struct {
	ID      string                 `yaml:"id"`
	Brain   string                 `yaml:"brain"`
	Affixes []string               `yaml:"affixes"`
	Params  map[string]interface{} `yaml:"params"`
}

type affixRecord struct {
	ID     string                 `yaml:"id"`
	Ref    string                 `yaml:"ref"`
	Params map[string]interface{} `yaml:"params"`
}

// LoadDir загружает все *.yaml / *.yml файлы каталога.
// Любая ошибка фатальна: она означает ошибку сборки контента.
func LoadDir(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("каталог контента: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("каталог контента: %s не является каталогом", dir)
	}
	return Load(os.DirFS(dir))
}

// Load загружает контент из файловой системы fsys (только корневой уровень).
// Файлы читаются в лексикографическом порядке.
func Load(fsys fs.FS) (*Store, error) {
	var names []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("поиск файлов контента: %w", err)
		}
		names = append(names, matches...)
	}
	sort.Strings(names)

	var (
		skills   []Skill
		monsters []Monster
		affixes  []Affix
	)
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("чтение %s: %w", name, err)
		}
		f, err := parseFile(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(name), err)
		}

		for _, r := range f.Skills {
			p, err := convertParams(r.Params)
			if err != nil {
				return nil, fmt.Errorf("%s: skill %q: %w", name, r.ID, err)
			}
			skills = append(skills, Skill{ID: r.ID, Ref: r.Ref, Params: p})
		}
		for _, r := range f.Monsters {
			p, err := convertParams(r.Params)
			if err != nil {
				return nil, fmt.Errorf("%s: monster %q: %w", name, r.ID, err)
			}
			monsters = append(monsters, Monster{ID: r.ID, Brain: r.Brain, Affixes: r.Affixes, Params: p})
		}
		for _, r := range f.Affixes {
			p, err := convertParams(r.Params)
			if err != nil {
				return nil, fmt.Errorf("%s: affix %q: %w", name, r.ID, err)
			}
			affixes = append(affixes, Affix{ID: r.ID, Ref: r.Ref, Params: p})
		}
	}

	return NewStore(skills, monsters, affixes)
}

// parseFile строго разбирает YAML: неизвестные поля - ошибка.
func parseFile(data []byte) (*file, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("разбор YAML: %w", err)
	}
	return &f, nil
}

func convertParams(raw map[string]interface{}) (params.Args, error) {
	out := make(params.Args, len(raw))
	for key, value := range raw {
		v, err := params.FromAny(value)
		if err != nil {
			return nil, fmt.Errorf("параметр %q: %w", key, err)
		}
		out[key] = v
	}
	return out, nil
}
