package mqtt

import (
	"fmt"
	"strings"

	"github.com/angas/elpris-go/sensor"
	"github.com/angas/elpris-go/types"
)

const (
	payloadOnline  = "online"
	payloadOffline = "offline"
)

type discoveryDevice struct {
	Identifiers      []string `json:"identifiers"`
	Name             string   `json:"name"`
	Manufacturer     string   `json:"manufacturer"`
	ConfigurationURL string   `json:"configuration_url"`
}

// discoveryConfig is the retained Home Assistant sensor config message.
type discoveryConfig struct {
	Name                string          `json:"name"`
	UniqueID            string          `json:"unique_id"`
	ObjectID            string          `json:"object_id"`
	StateTopic          string          `json:"state_topic"`
	AvailabilityTopic   string          `json:"availability_topic"`
	PayloadAvailable    string          `json:"payload_available"`
	PayloadNotAvailable string          `json:"payload_not_available"`
	UnitOfMeasurement   string          `json:"unit_of_measurement"`
	DeviceClass         string          `json:"device_class"`
	Icon                string          `json:"icon"`
	Attribution         string          `json:"attribution,omitempty"`
	Device              discoveryDevice `json:"device"`
}

type topics struct {
	prefix string
	base   string
}

func newTopics(prefix string, area types.PriceArea) topics {
	return topics{
		prefix: strings.TrimSuffix(prefix, "/"),
		base:   sensor.DeviceIdentifier + "/" + strings.ToLower(area.String()),
	}
}

func (t topics) availability() string {
	return t.base + "/status"
}

func (t topics) state(m sensor.Metric) string {
	return fmt.Sprintf("%s/%s/state", t.base, m.Key())
}

func (t topics) config(m sensor.Metric, area types.PriceArea) string {
	return fmt.Sprintf("%s/sensor/%s/config", t.prefix, sensor.UniqueID(m, area))
}

func newDiscoveryConfig(t topics, m sensor.Metric, area types.PriceArea) discoveryConfig {
	dev := sensor.DeviceFor(area)
	return discoveryConfig{
		Name:                m.Name(),
		UniqueID:            sensor.UniqueID(m, area),
		ObjectID:            sensor.UniqueID(m, area),
		StateTopic:          t.state(m),
		AvailabilityTopic:   t.availability(),
		PayloadAvailable:    payloadOnline,
		PayloadNotAvailable: payloadOffline,
		UnitOfMeasurement:   sensor.Unit,
		DeviceClass:         sensor.DeviceClass,
		Icon:                sensor.Icon,
		Attribution:         sensor.Attribution,
		Device: discoveryDevice{
			Identifiers:      []string{dev.Identifier},
			Name:             dev.Name,
			Manufacturer:     dev.Manufacturer,
			ConfigurationURL: dev.ConfigurationURL,
		},
	}
}
