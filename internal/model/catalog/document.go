package catalog

import "encoding/json"

// Payload is the structured item data attached to at most one stream event
// per logical message.
type Payload struct {
	Kind         Kind   `json:"kind"`
	Items        []Item `json:"items"`
	IsExactMatch bool   `json:"isExactMatch"`
}

// UnmarshalJSON decodes items through the kind tag so the concrete item
// cases round-trip losslessly.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind         Kind              `json:"kind"`
		Items        []json.RawMessage `json:"items"`
		IsExactMatch bool              `json:"isExactMatch"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	items, err := DecodeItems(raw.Kind, raw.Items)
	if err != nil {
		return err
	}

	p.Kind = raw.Kind
	p.Items = items
	p.IsExactMatch = raw.IsExactMatch
	return nil
}

// Document is the recommendation document used inline in non-streaming
// replies and intercepted by the client render buffer. The kind travels
// under the "type" key on the wire.
type Document struct {
	Text         string `json:"text"`
	Items        []Item `json:"items"`
	Kind         Kind   `json:"type"`
	IsExactMatch bool   `json:"isExactMatch,omitempty"`
}

// UnmarshalJSON mirrors Payload.UnmarshalJSON for the "type"-keyed shape.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text         string            `json:"text"`
		Items        []json.RawMessage `json:"items"`
		Kind         Kind              `json:"type"`
		IsExactMatch bool              `json:"isExactMatch"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	items, err := DecodeItems(raw.Kind, raw.Items)
	if err != nil {
		return err
	}

	d.Text = raw.Text
	d.Items = items
	d.Kind = raw.Kind
	d.IsExactMatch = raw.IsExactMatch
	return nil
}

// Payload converts the document into the stream payload shape.
func (d *Document) Payload() *Payload {
	if d == nil {
		return nil
	}
	return &Payload{Kind: d.Kind, Items: d.Items, IsExactMatch: d.IsExactMatch}
}

// Result is what an item-fetch collaborator returns for one query.
type Result struct {
	Items        []Item
	IsExactMatch bool
}
