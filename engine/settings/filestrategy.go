package settings

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

type StorageBackend string

const (
	BackendLocal      StorageBackend = "local"
	BackendFirebase   StorageBackend = "firebase"
	BackendS3         StorageBackend = "s3"
	BackendAzureBlob  StorageBackend = "azure_blob"
	BackendCloudFront StorageBackend = "cloudfront"
)

var storageBackends = []StorageBackend{
	BackendLocal, BackendFirebase, BackendS3, BackendAzureBlob, BackendCloudFront,
}

func (b StorageBackend) Valid() bool {
	return slices.Contains(storageBackends, b)
}

type AssetClass string

const (
	AssetAvatar   AssetClass = "avatar"
	AssetImage    AssetClass = "image"
	AssetDocument AssetClass = "document"
)

var assetClasses = []AssetClass{AssetAvatar, AssetImage, AssetDocument}

type FileStrategyKind string

const (
	FileStrategyUnset    FileStrategyKind = ""
	FileStrategySingle   FileStrategyKind = "single"
	FileStrategyPerAsset FileStrategyKind = "perAsset"
)

// FileStrategy is either one backend for every asset class or one backend per class.
// On the wire it is a bare string or an object keyed by asset class.
type FileStrategy struct {
	Kind     FileStrategyKind
	Single   StorageBackend
	Avatar   StorageBackend
	Image    StorageBackend
	Document StorageBackend
}

func SingleFileStrategy(b StorageBackend) FileStrategy {
	return FileStrategy{Kind: FileStrategySingle, Single: b}
}

// PerAssetFileStrategy builds a per-class strategy. Missing classes fall back to local
// and a strategy whose classes all agree collapses to the single form.
func PerAssetFileStrategy(avatar, image, document StorageBackend) FileStrategy {
	fs := FileStrategy{Kind: FileStrategyPerAsset, Avatar: avatar, Image: image, Document: document}
	return fs.normalized()
}

func (fs FileStrategy) IsSet() bool {
	return fs.Kind != FileStrategyUnset
}

// Backend returns the backend serving the given asset class.
func (fs FileStrategy) Backend(class AssetClass) StorageBackend {
	switch fs.Kind {
	case FileStrategySingle:
		return fs.Single
	case FileStrategyPerAsset:
		var b StorageBackend
		switch class {
		case AssetAvatar:
			b = fs.Avatar
		case AssetImage:
			b = fs.Image
		case AssetDocument:
			b = fs.Document
		}
		if b == "" {
			return BackendLocal
		}
		return b
	default:
		return BackendLocal
	}
}

// Backends lists the distinct backends in use, in declaration order.
func (fs FileStrategy) Backends() []StorageBackend {
	var out []StorageBackend
	for _, class := range assetClasses {
		b := fs.Backend(class)
		if !slices.Contains(out, b) {
			out = append(out, b)
		}
	}
	return out
}

func (fs FileStrategy) Uses(b StorageBackend) bool {
	return slices.Contains(fs.Backends(), b)
}

func (fs FileStrategy) normalized() FileStrategy {
	if fs.Kind != FileStrategyPerAsset {
		return fs
	}
	out := FileStrategy{
		Kind:     FileStrategyPerAsset,
		Avatar:   fs.Backend(AssetAvatar),
		Image:    fs.Backend(AssetImage),
		Document: fs.Backend(AssetDocument),
	}
	if out.Avatar == out.Image && out.Image == out.Document {
		return SingleFileStrategy(out.Avatar)
	}
	return out
}

// Value returns the wire form: a string, a class-keyed map, or nil when unset.
func (fs FileStrategy) Value() any {
	switch fs.Kind {
	case FileStrategySingle:
		return string(fs.Single)
	case FileStrategyPerAsset:
		return map[string]any{
			string(AssetAvatar):   string(fs.Backend(AssetAvatar)),
			string(AssetImage):    string(fs.Backend(AssetImage)),
			string(AssetDocument): string(fs.Backend(AssetDocument)),
		}
	default:
		return nil
	}
}

func (fs FileStrategy) String() string {
	switch fs.Kind {
	case FileStrategySingle:
		return string(fs.Single)
	case FileStrategyPerAsset:
		return fmt.Sprintf("avatar=%s,image=%s,document=%s",
			fs.Backend(AssetAvatar), fs.Backend(AssetImage), fs.Backend(AssetDocument))
	default:
		return ""
	}
}

func (fs FileStrategy) MarshalJSON() ([]byte, error) {
	return json.Marshal(fs.Value())
}

func (fs *FileStrategy) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseFileStrategy(raw)
	if err != nil {
		return err
	}
	*fs = parsed
	return nil
}

func (fs FileStrategy) MarshalYAML() (any, error) {
	return fs.Value(), nil
}

func (fs *FileStrategy) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseFileStrategy(raw)
	if err != nil {
		return err
	}
	*fs = parsed
	return nil
}

// ParseFileStrategy accepts nil, a backend name, or a map keyed by asset class.
// Unknown backend names are kept so validation can report them against the field.
func ParseFileStrategy(raw any) (FileStrategy, error) {
	switch v := raw.(type) {
	case nil:
		return FileStrategy{}, nil
	case FileStrategy:
		return v.normalized(), nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return FileStrategy{}, nil
		}
		return SingleFileStrategy(StorageBackend(v)), nil
	case StorageBackend:
		return ParseFileStrategy(string(v))
	case map[string]any:
		fs := FileStrategy{Kind: FileStrategyPerAsset}
		for key, val := range v {
			s, ok := val.(string)
			if !ok && val != nil {
				return FileStrategy{}, fmt.Errorf("fileStrategy.%s must be a string, got %T", key, val)
			}
			b := StorageBackend(strings.TrimSpace(s))
			switch AssetClass(key) {
			case AssetAvatar:
				fs.Avatar = b
			case AssetImage:
				fs.Image = b
			case AssetDocument:
				fs.Document = b
			default:
				return FileStrategy{}, fmt.Errorf("fileStrategy has unknown asset class %q", key)
			}
		}
		return fs.normalized(), nil
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return ParseFileStrategy(m)
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[fmt.Sprint(k)] = s
		}
		return ParseFileStrategy(m)
	default:
		return FileStrategy{}, fmt.Errorf("fileStrategy must be a string or an object, got %T", raw)
	}
}

type fileStrategyObject struct {
	Avatar   string `json:"avatar,omitempty"`
	Image    string `json:"image,omitempty"`
	Document string `json:"document,omitempty"`
}

func backendEnum() []any {
	out := make([]any, len(storageBackends))
	for i, b := range storageBackends {
		out[i] = string(b)
	}
	return out
}

func (FileStrategy) JSONSchema() *jsonschema.Schema {
	obj := (&jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}).Reflect(&fileStrategyObject{})
	obj.Version = ""
	obj.ID = ""
	for pair := obj.Properties.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.Enum = backendEnum()
	}
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string", Enum: backendEnum()},
			obj,
		},
	}
}
