package domain

// Channel is the unit of group-messaging configuration and membership.
// A channel is loaded from the repository, owned by a single processing
// session, mutated in memory, and written back on clean session exit.
type Channel struct {
	ID      string        `yaml:"id"`
	Head    string        `yaml:"head"`
	Rcpt    string        `yaml:"rcpt"`
	Backend BackendConfig `yaml:"backend"`
	Users   []*User       `yaml:"users,omitempty"`
	Phones  []*Phone      `yaml:"phones,omitempty"`
	Aliases Aliases       `yaml:"aliases"`
}

// NewChannel returns a channel with default header, aliases and a no-op
// backend.
func NewChannel(id string) *Channel {
	return &Channel{
		ID:      id,
		Head:    "From {from}: ",
		Rcpt:    "ops",
		Backend: BackendConfig{Module: "none"},
		Aliases: Aliases{All: "all", Ops: "ops"},
	}
}

// User is a member of a channel, identified by a nick that is unique
// case-insensitively within the channel.
type User struct {
	Nick  string `yaml:"nick"`
	Op    bool   `yaml:"op"`    // operator privilege
	Voice bool   `yaml:"voice"` // reserved
}

// Phone is an E.164 number registered in a channel. Mute suppresses
// outbound delivery to the phone, not inbound evaluation.
type Phone struct {
	Number string `yaml:"number"`
	Nick   string `yaml:"nick"`
	Mute   bool   `yaml:"mute"`
}

// Aliases are the reserved broadcast destination names, configurable per
// channel but never equal to a member nick.
type Aliases struct {
	All string `yaml:"all"`
	Ops string `yaml:"ops"`
}

// BackendConfig selects and parameterizes a transport module.
type BackendConfig struct {
	Module string            `yaml:"module"`
	Args   map[string]string `yaml:"args,omitempty"`
}
