// Package content хранит декларативные записи игрового контента
// (навыки, монстры, аффиксы), загружаемые один раз при старте.
//
// Записи неизменяемы после загрузки. Поле Ref указывает обработчик в
// соответствующем реестре; отсутствие обработчика не является ошибкой загрузки.
package content

import "github.com/annel0/skirmish/internal/params"

// Skill - запись навыка/способности
type Skill struct {
	ID     string
	Ref    string      // ref обработчика в реестре powers
	Params params.Args // значения по умолчанию для параметров обработчика
}

// Monster - запись монстра
type Monster struct {
	ID      string
	Brain   string      // ref поведения в реестре brains
	Affixes []string    // ID аффиксов, применяемых при спавне
	Params  params.Args // значения по умолчанию для параметров поведения
}

// Affix - модификатор монстра. Его параметры записываются в хранилище
// сущности при спавне и становятся переопределениями уровня «сущность».
type Affix struct {
	ID     string
	Ref    string // ref эффекта, проигрываемого при спавне (может быть пустым)
	Params params.Args
}
