package hypervisor

import (
	"encoding/xml"

	"github.com/xolox/negotiator/pkg/protocol"
)

type domainXML struct {
	Devices struct {
		Channels []channelXML `xml:"channel"`
	} `xml:"devices"`
}

type channelXML struct {
	Type   string `xml:"type,attr"`
	Source struct {
		Path string `xml:"path,attr"`
	} `xml:"source"`
	Target struct {
		Type string `xml:"type,attr"`
		Name string `xml:"name,attr"`
	} `xml:"target"`
}

// parseChannels selects the negotiator channels from a guest's domain XML:
// channel elements of type "unix" whose virtio target carries one of the two
// recognized names, mapped to their source socket path.
func parseChannels(data []byte) (map[string]string, error) {
	var domain domainXML
	if err := xml.Unmarshal(data, &domain); err != nil {
		return nil, err
	}
	paths := make(map[string]string)
	for _, channel := range domain.Devices.Channels {
		if channel.Type != "unix" || channel.Target.Type != "virtio" {
			continue
		}
		switch channel.Target.Name {
		case protocol.GuestToHostChannel, protocol.HostToGuestChannel:
			paths[channel.Target.Name] = channel.Source.Path
		}
	}
	return paths, nil
}
