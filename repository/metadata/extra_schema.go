package metadata

import (
	"database/sql"
	"encoding/json"
)

func toJSON(schema interface{}) string {
	bytes, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

func (e *Extra) Set(extraType string, schema interface{}) {
	e.ExtraType = sql.NullString{String: extraType, Valid: true}
	e.ExtraJSON = sql.NullString{String: toJSON(schema), Valid: true}
}

// Get decodes ExtraJSON into schema; false when the type differs or nothing is stored.
func (e *Extra) Get(extraType string, schema interface{}) bool {
	if !e.ExtraType.Valid || e.ExtraType.String != extraType || !e.ExtraJSON.Valid {
		return false
	}
	return json.Unmarshal([]byte(e.ExtraJSON.String), schema) == nil
}

type LabelScore struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

/*
SchemaRunScores 训练结束时模型在 dev 分区上的得分，外部训练过程可能不提供。
*/
type SchemaRunScores struct {
	LabelScore
	PerLabel map[string]LabelScore `json:"per_label,omitempty"`
}

type SchemaGraphExport struct {
	EntityCSV   string `json:"entity_csv"`
	RelationCSV string `json:"relation_csv"`
	Entities    int    `json:"entities"`
	Relations   int    `json:"relations"`
	Neo4j       bool   `json:"neo4j"`
}
