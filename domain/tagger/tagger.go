package tagger

import "context"

type Engine string

const (
	EngineCustom Engine = "CUSTOM"
	EnginePerson Engine = "PERSON"
)

/*
Span 标注器给出的一个实体片段。

	Start/End 为文本中的 UTF-8 字节下标，左闭右开；
	Label 为标签，自定义字段为 SPORTS_NAME / WINNING_POSITION / ORG_YEAR，人名为 PER；
	Engine 为产生该片段的标注器。
*/
type Span struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Label  string `json:"label"`
	Engine Engine `json:"engine"`
}

// Capability is a loadable span tagger. Predict is safe for concurrent use after Load returns nil.
type Capability interface {
	Load(ctx context.Context) error
	Predict(ctx context.Context, text string) ([]Span, error)
}
