package storage

type ResourceType string

const (
	ResourceMachine   ResourceType = "machine"
	ResourceFinishing ResourceType = "finishing"
	ResourceLabor     ResourceType = "labor"
)

type Resource struct {
	ID             int64          `json:"id" yaml:"id"`
	Type           ResourceType   `json:"type" yaml:"type"`
	Name           string         `json:"name" yaml:"name"`
	CostPerHour    float64        `json:"cost_per_hour" yaml:"cost_per_hour"` // старое плоское поле, если в профиле нет ставки
	CostingProfile CostingProfile `json:"costing_profile" yaml:"costing_profile"`
}

type CostingProfile struct {
	CostPerHour  *float64         `json:"costPerHour,omitempty" yaml:"costPerHour,omitempty"`
	SetupMinutes *float64         `json:"setupMinutes,omitempty" yaml:"setupMinutes,omitempty"`
	Speeds       map[string]Speed `json:"speeds,omitempty" yaml:"speeds,omitempty"`
}

type Speed struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit" yaml:"unit"`
}

type Material struct {
	ID        int64   `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Price     float64 `json:"price" yaml:"price"` // цена за лист
	Width     float64 `json:"width" yaml:"width"`
	Height    float64 `json:"height" yaml:"height"`
	Thickness float64 `json:"thickness" yaml:"thickness"`
}
