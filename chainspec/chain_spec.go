package chainspec

import (
	"bytes"
	"os"

	"github.com/pkg/errors"

	lserrors "github.com/mezonai/lightsync/errors"
	"github.com/mezonai/lightsync/jsonx"
)

// ChainType names the kind of network a chain spec describes.
type ChainType string

const (
	ChainTypeDevelopment ChainType = "Development"
	ChainTypeLocal       ChainType = "Local"
	ChainTypeLive        ChainType = "Live"
)

// TelemetryEndpoint is a (url, verbosity) pair, encoded as a two element array.
type TelemetryEndpoint struct {
	URL       string
	Verbosity uint8
}

func (t TelemetryEndpoint) MarshalJSON() ([]byte, error) {
	return jsonx.Marshal([]interface{}{t.URL, t.Verbosity})
}

func (t *TelemetryEndpoint) UnmarshalJSON(data []byte) error {
	var pair []jsonx.RawMessage
	if err := jsonx.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return errors.Errorf("telemetry endpoint must have 2 elements, got %d", len(pair))
	}
	if err := jsonx.Unmarshal(pair[0], &t.URL); err != nil {
		return errors.Wrap(err, "telemetry url")
	}
	if err := jsonx.Unmarshal(pair[1], &t.Verbosity); err != nil {
		return errors.Wrap(err, "telemetry verbosity")
	}
	return nil
}

// RawGenesis is genesis storage as hex key/value pairs.
type RawGenesis struct {
	Top             map[string]string            `json:"top"`
	ChildrenDefault map[string]map[string]string `json:"childrenDefault"`
}

func (r *RawGenesis) clone() *RawGenesis {
	if r == nil {
		return nil
	}
	out := &RawGenesis{
		Top:             make(map[string]string, len(r.Top)),
		ChildrenDefault: make(map[string]map[string]string, len(r.ChildrenDefault)),
	}
	for k, v := range r.Top {
		out.Top[k] = v
	}
	for child, kv := range r.ChildrenDefault {
		m := make(map[string]string, len(kv))
		for k, v := range kv {
			m[k] = v
		}
		out.ChildrenDefault[child] = m
	}
	return out
}

// MarshalJSON writes absent storage maps as empty objects.
func (r RawGenesis) MarshalJSON() ([]byte, error) {
	type rawGenesisFields RawGenesis
	fields := rawGenesisFields(r)
	if fields.Top == nil {
		fields.Top = map[string]string{}
	}
	if fields.ChildrenDefault == nil {
		fields.ChildrenDefault = map[string]map[string]string{}
	}
	return jsonx.Marshal(fields)
}

// Genesis carries the human readable runtime config, the raw storage, or both.
// Other members (runtimeGenesis, stateRootHash, ...) are kept verbatim in Other.
type Genesis struct {
	Runtime jsonx.RawMessage
	Raw     *RawGenesis
	Other   map[string]jsonx.RawMessage
}

const (
	genesisRuntimeKey = "runtime"
	genesisRawKey     = "raw"
)

func (g Genesis) MarshalJSON() ([]byte, error) {
	members := make(map[string]jsonx.RawMessage, len(g.Other)+2)
	for k, v := range g.Other {
		if len(bytes.TrimSpace(v)) == 0 {
			v = jsonx.Null
		}
		members[k] = v
	}
	if len(g.Runtime) > 0 {
		members[genesisRuntimeKey] = g.Runtime
	}
	if g.Raw != nil {
		raw, err := jsonx.Marshal(*g.Raw)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode raw genesis")
		}
		members[genesisRawKey] = raw
	}
	// map keys are emitted sorted
	return jsonx.Marshal(members)
}

func (g *Genesis) UnmarshalJSON(data []byte) error {
	var members map[string]jsonx.RawMessage
	if err := jsonx.Unmarshal(data, &members); err != nil {
		return errors.Wrap(err, "genesis")
	}
	*g = Genesis{}
	for k, v := range members {
		switch k {
		case genesisRuntimeKey:
			if !jsonx.IsNull(v) {
				g.Runtime = bytes.Clone(v)
			}
		case genesisRawKey:
			if jsonx.IsNull(v) {
				continue
			}
			var raw RawGenesis
			if err := jsonx.Unmarshal(v, &raw); err != nil {
				return errors.Wrap(err, "genesis raw")
			}
			g.Raw = &raw
		default:
			if g.Other == nil {
				g.Other = make(map[string]jsonx.RawMessage)
			}
			g.Other[k] = bytes.Clone(v)
		}
	}
	return nil
}

func (g Genesis) clone() Genesis {
	out := Genesis{
		Runtime: bytes.Clone(g.Runtime),
		Raw:     g.Raw.clone(),
	}
	if g.Other != nil {
		out.Other = make(map[string]jsonx.RawMessage, len(g.Other))
		for k, v := range g.Other {
			out.Other[k] = bytes.Clone(v)
		}
	}
	return out
}

// ChainSpec is a chain specification document. Top level keys that are not
// core fields are kept verbatim as extensions.
type ChainSpec struct {
	Name               string                      `json:"name"`
	ID                 string                      `json:"id"`
	ChainType          ChainType                   `json:"chainType"`
	BootNodes          []string                    `json:"bootNodes"`
	TelemetryEndpoints []TelemetryEndpoint         `json:"telemetryEndpoints"`
	ProtocolID         *string                     `json:"protocolId"`
	ForkID             *string                     `json:"forkId,omitempty"`
	Properties         map[string]jsonx.RawMessage `json:"properties"`
	ForkBlocks         jsonx.RawMessage            `json:"forkBlocks,omitempty"`
	BadBlocks          jsonx.RawMessage            `json:"badBlocks,omitempty"`
	ConsensusEngine    jsonx.RawMessage            `json:"consensusEngine,omitempty"`
	CodeSubstitutes    map[string]string           `json:"codeSubstitutes"`
	Genesis            Genesis                     `json:"genesis"`

	extensions Extensions
}

// chainSpecFields has the same fields without the custom codec.
type chainSpecFields ChainSpec

var coreKeys = map[string]struct{}{
	"name": {}, "id": {}, "chainType": {}, "bootNodes": {}, "telemetryEndpoints": {},
	"protocolId": {}, "forkId": {}, "properties": {}, "forkBlocks": {}, "badBlocks": {},
	"consensusEngine": {}, "codeSubstitutes": {}, "genesis": {},
}

// New returns an empty document with the given identity.
func New(name, id string, chainType ChainType) *ChainSpec {
	return &ChainSpec{
		Name:            name,
		ID:              id,
		ChainType:       chainType,
		BootNodes:       []string{},
		CodeSubstitutes: map[string]string{},
		extensions:      newExtensions(),
	}
}

// FromJSON parses a chain spec document.
func FromJSON(data []byte) (*ChainSpec, error) {
	var fields chainSpecFields
	if err := jsonx.Unmarshal(data, &fields); err != nil {
		return nil, errors.Wrap(err, "failed to parse chain spec")
	}
	var all map[string]jsonx.RawMessage
	if err := jsonx.Unmarshal(data, &all); err != nil {
		return nil, errors.Wrap(err, "failed to parse chain spec keys")
	}
	if fields.Name == "" || fields.ID == "" {
		return nil, errors.New("chain spec requires name and id")
	}

	spec := ChainSpec(fields)
	if spec.ChainType == "" {
		spec.ChainType = ChainTypeLive
	}
	spec.extensions = newExtensions()
	for key, value := range all {
		if _, core := coreKeys[key]; core {
			continue
		}
		spec.extensions.Declare(ExtensionKind(key), value)
	}
	return &spec, nil
}

// Load reads and parses the chain spec at path.
func Load(path string) (*ChainSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read chain spec %s", path)
	}
	spec, err := FromJSON(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "chain spec %s", path)
	}
	return spec, nil
}

// Extensions gives access to the extension slots of the document.
func (cs *ChainSpec) Extensions() *Extensions {
	return &cs.extensions
}

// Clone deep copies the document.
func (cs *ChainSpec) Clone() *ChainSpec {
	out := *cs
	out.BootNodes = append([]string(nil), cs.BootNodes...)
	out.TelemetryEndpoints = append([]TelemetryEndpoint(nil), cs.TelemetryEndpoints...)
	if cs.ProtocolID != nil {
		id := *cs.ProtocolID
		out.ProtocolID = &id
	}
	if cs.ForkID != nil {
		id := *cs.ForkID
		out.ForkID = &id
	}
	if cs.Properties != nil {
		out.Properties = make(map[string]jsonx.RawMessage, len(cs.Properties))
		for k, v := range cs.Properties {
			out.Properties[k] = bytes.Clone(v)
		}
	}
	out.ForkBlocks = bytes.Clone(cs.ForkBlocks)
	out.BadBlocks = bytes.Clone(cs.BadBlocks)
	out.ConsensusEngine = bytes.Clone(cs.ConsensusEngine)
	out.CodeSubstitutes = make(map[string]string, len(cs.CodeSubstitutes))
	for k, v := range cs.CodeSubstitutes {
		out.CodeSubstitutes[k] = v
	}
	out.Genesis = cs.Genesis.clone()
	out.extensions = cs.extensions.clone()
	return &out
}

// AsJSON renders the document pretty printed. Core fields come first, then
// extensions in key order. With raw set only the raw genesis storage is
// emitted; a document without raw storage cannot be rendered that way.
func (cs *ChainSpec) AsJSON(raw bool) (string, error) {
	out, err := cs.encode(raw)
	if err != nil {
		return "", lserrors.SerializationFailure(err)
	}
	pretty, err := jsonx.Indent(out, "", "  ")
	if err != nil {
		return "", lserrors.SerializationFailure(err)
	}
	return string(pretty), nil
}

// MarshalJSON renders the full document in compact form.
func (cs *ChainSpec) MarshalJSON() ([]byte, error) {
	return cs.encode(false)
}

// UnmarshalJSON parses a document in place.
func (cs *ChainSpec) UnmarshalJSON(data []byte) error {
	spec, err := FromJSON(data)
	if err != nil {
		return err
	}
	*cs = *spec
	return nil
}

func (cs *ChainSpec) encode(raw bool) ([]byte, error) {
	fields := chainSpecFields(*cs)
	if fields.BootNodes == nil {
		fields.BootNodes = []string{}
	}
	if fields.CodeSubstitutes == nil {
		fields.CodeSubstitutes = map[string]string{}
	}
	if fields.ChainType == "" {
		fields.ChainType = ChainTypeLive
	}
	if raw {
		if cs.Genesis.Raw == nil {
			return nil, errors.New("chain spec has no raw genesis storage")
		}
		fields.Genesis = Genesis{Raw: cs.Genesis.Raw, Other: cs.Genesis.Other}
	}

	core, err := jsonx.Marshal(fields)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode core fields")
	}

	var buf bytes.Buffer
	buf.Write(core[:len(core)-1])
	for _, kind := range cs.extensions.Kinds() {
		key, err := jsonx.Marshal(string(kind))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode extension key %s", kind)
		}
		value := cs.extensions.values[kind]
		if len(bytes.TrimSpace(value)) == 0 {
			value = jsonx.Null
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	if !jsonValid(buf.Bytes()) {
		return nil, errors.New("chain spec extension holds invalid JSON")
	}
	return buf.Bytes(), nil
}

func jsonValid(data []byte) bool {
	_, err := jsonx.Compact(data)
	return err == nil
}
