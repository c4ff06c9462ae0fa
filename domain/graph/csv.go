package graph

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/merger"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/sirupsen/logrus"
)

const (
	EntityTypeParticipant = "Participant"
	EntityTypeSport       = "Sport"

	RelationWonIn = "WON_IN"
)

type entityKey struct {
	name       string
	entityType string
}

// relationRow is one Participant -WON_IN-> Sport edge.
type relationRow struct {
	Head     string
	Tail     string
	Position string
	Year     string
	Row      int
}

/*
csvBuilder 将抽取结果转换为两份 CSV：

	实体：version,name,type
	关系：version,head,rel,tail,position,year,row

只有同时识别出参赛者与项目的行才会产生关系；实体按 (name, type) 去重。
*/
type csvBuilder struct {
	// input
	version string
	records []merger.Record
	logger  *logrus.Logger

	// output
	entities    []entityKey
	relations   []relationRow
	entityCSV   bytes.Buffer
	relationCSV bytes.Buffer
}

func (b *csvBuilder) buildCSV() error {
	seen := make(map[entityKey]struct{})
	addEntity := func(key entityKey) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		b.entities = append(b.entities, key)
	}

	for i := range b.records {
		record := &b.records[i]
		if record.ParticipantName == nil || record.SportName == nil {
			continue
		}

		addEntity(entityKey{name: *record.ParticipantName, entityType: EntityTypeParticipant})
		addEntity(entityKey{name: *record.SportName, entityType: EntityTypeSport})

		b.relations = append(b.relations, relationRow{
			Head:     *record.ParticipantName,
			Tail:     *record.SportName,
			Position: utils.PtrToString(record.WinningPosition),
			Year:     utils.PtrToString(record.OrgYear),
			Row:      i,
		})
	}

	if err := b.writeEntities(); err != nil {
		return utils.WrapError(err, "write entity csv fail")
	}
	if err := b.writeRelations(); err != nil {
		return utils.WrapError(err, "write relation csv fail")
	}

	if b.logger != nil {
		b.logger.Debugf("graph [%s]: %d entities, %d relations from %d records",
			b.version, len(b.entities), len(b.relations), len(b.records))
	}

	return nil
}

func (b *csvBuilder) writeEntities() error {
	w := csv.NewWriter(&b.entityCSV)
	if err := w.Write([]string{"version", "name", "type"}); err != nil {
		return err
	}
	for _, ent := range b.entities {
		if err := w.Write([]string{b.version, ent.name, ent.entityType}); err != nil {
			return utils.WrapErrorf(err, "record entity [%s] fail", ent.name)
		}
	}
	w.Flush()
	return w.Error()
}

func (b *csvBuilder) writeRelations() error {
	w := csv.NewWriter(&b.relationCSV)
	if err := w.Write([]string{"version", "head", "rel", "tail", "position", "year", "row"}); err != nil {
		return err
	}
	for _, rel := range b.relations {
		err := w.Write([]string{b.version, rel.Head, RelationWonIn, rel.Tail, rel.Position, rel.Year, strconv.Itoa(rel.Row)})
		if err != nil {
			return utils.WrapErrorf(err, "record relation <%s, %s> fail", rel.Head, rel.Tail)
		}
	}
	w.Flush()
	return w.Error()
}
