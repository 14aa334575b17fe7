package store

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"smsrelay/internal/domain"
)

// EncodeSnapshot renders a channel as a YAML document for export.
func EncodeSnapshot(ch *domain.Channel) ([]byte, error) {
	data, err := yaml.Marshal(ch)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a YAML channel snapshot. Absent fields keep the
// channel defaults; members are validated before the channel is returned.
func DecodeSnapshot(data []byte) (*domain.Channel, error) {
	ch := domain.NewChannel("")
	if err := yaml.Unmarshal(data, ch); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if ch.ID == "" {
		return nil, fmt.Errorf("snapshot has no channel id")
	}
	for _, u := range ch.Users {
		if err := domain.ValidNick(u.Nick); err != nil {
			return nil, fmt.Errorf("user: %w", err)
		}
	}
	for _, p := range ch.Phones {
		if err := domain.ValidNumber(p.Number); err != nil {
			return nil, fmt.Errorf("phone: %w", err)
		}
		if p.Nick == "" {
			return nil, fmt.Errorf("phone %s has no nick", p.Number)
		}
	}
	return ch, nil
}
