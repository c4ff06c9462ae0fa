package graph

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/merger"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
)

const (
	entityCypher = `
		UNWIND $rows AS row
		MERGE (e:Entity {version: row.version, name: row.name, type: row.type})
	`
	relationCypher = `
		UNWIND $rows AS row
		MATCH (h:Entity {version: row.version, name: row.head, type: 'Participant'}),
		      (t:Entity {version: row.version, name: row.tail, type: 'Sport'})
		MERGE (h)-[r:WON_IN {version: row.version, row: row.row}]->(t)
		SET r.position = row.position, r.year = row.year
	`
)

/*
ExportConfig 导出配置。

	Dir CSV 的输出目录；
	BaseName 文件名前缀，生成 <BaseName>.entities.csv 与 <BaseName>.relations.csv；
	Version 写入每一行的版本号，一般为模型的训练号。
*/
type ExportConfig struct {
	Dir      string
	BaseName string
	Version  string
}

type ExportResult struct {
	EntityCSV   string
	RelationCSV string
	Entities    int
	Relations   int
	Neo4j       bool
}

func export(ctx context.Context, setting *KGSetting, records []merger.Record, config *ExportConfig) (*ExportResult, error) {
	builder := csvBuilder{
		version: config.Version,
		records: records,
		logger:  setting.Logger,
	}
	if err := builder.buildCSV(); err != nil {
		return nil, utils.WrapError(err, "build csv fail")
	}

	ret := &ExportResult{
		EntityCSV:   filepath.Join(config.Dir, config.BaseName+".entities.csv"),
		RelationCSV: filepath.Join(config.Dir, config.BaseName+".relations.csv"),
		Entities:    len(builder.entities),
		Relations:   len(builder.relations),
	}

	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, utils.WrapErrorf(err, "mkdir [%s] fail", config.Dir)
	}
	if err := os.WriteFile(ret.EntityCSV, builder.entityCSV.Bytes(), 0o644); err != nil {
		return nil, utils.WrapError(err, "save entity csv fail")
	}
	if err := os.WriteFile(ret.RelationCSV, builder.relationCSV.Bytes(), 0o644); err != nil {
		return nil, utils.WrapError(err, "save relation csv fail")
	}

	if setting.Execute == nil {
		return ret, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := load(setting, &builder); err != nil {
		return nil, utils.WrapError(err, "load csv to neo4j fail")
	}
	ret.Neo4j = true

	if setting.Logger != nil {
		setting.Logger.Infof("graph [%s] loaded to neo4j: %d entities, %d relations",
			config.Version, ret.Entities, ret.Relations)
	}

	return ret, nil
}

func load(setting *KGSetting, builder *csvBuilder) error {
	entityRows := make([]interface{}, 0, len(builder.entities))
	for _, ent := range builder.entities {
		entityRows = append(entityRows, map[string]interface{}{
			"version": builder.version,
			"name":    ent.name,
			"type":    ent.entityType,
		})
	}

	relationRows := make([]interface{}, 0, len(builder.relations))
	for _, rel := range builder.relations {
		relationRows = append(relationRows, map[string]interface{}{
			"version":  builder.version,
			"head":     rel.Head,
			"tail":     rel.Tail,
			"position": rel.Position,
			"year":     rel.Year,
			"row":      int64(rel.Row),
		})
	}

	if len(entityRows) == 0 {
		return nil
	}

	if _, err := setting.Execute(entityCypher, map[string]interface{}{"rows": entityRows}); err != nil {
		return utils.WrapError(err, "merge entities fail")
	}

	if _, err := setting.Execute(relationCypher, map[string]interface{}{"rows": relationRows}); err != nil {
		return utils.WrapError(err, "merge relations fail")
	}

	return nil
}
