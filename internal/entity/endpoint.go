// Structure of subscription Endpoints and Subscribers in Waitingway.

package entity

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// EndpointKind is the closed set of things a subscriber can wait on.
type EndpointKind string

const (
	EndpointDatacenter EndpointKind = "datacenter"
	EndpointWorld      EndpointKind = "world"
)

// Endpoint identifies a subscribable route, never carries business data.
type Endpoint struct {
	Kind EndpointKind `json:"kind" valid:"required,in(datacenter|world)~kind:Kind must be datacenter or world"`
	ID   uint16       `json:"id" valid:"required~id:Id is required"`
}

func DatacenterEndpoint(id uint16) Endpoint {
	return Endpoint{Kind: EndpointDatacenter, ID: id}
}

func WorldEndpoint(id uint16) Endpoint {
	return Endpoint{Kind: EndpointWorld, ID: id}
}

// Returns the endpoint as kind:id, used as the suffix of its subscriber set key.
func (e Endpoint) String() string {
	return string(e.Kind) + ":" + strconv.FormatUint(uint64(e.ID), 10)
}

// SubscriberKind is the closed set of recipient platforms.
type SubscriberKind string

const SubscriberDiscord SubscriberKind = "discord"

// Subscriber is an opaque recipient identity, equal when kind and id are equal.
type Subscriber struct {
	Kind SubscriberKind
	ID   uint64
}

func DiscordSubscriber(id uint64) Subscriber {
	return Subscriber{Kind: SubscriberDiscord, ID: id}
}

// Returns the subscriber as kind:id, the member stored in a subscriber set.
func (s Subscriber) String() string {
	return string(s.Kind) + ":" + strconv.FormatUint(s.ID, 10)
}

// Parses a subscriber set member back into a Subscriber.
func ParseSubscriber(member string) (Subscriber, error) {
	kind, id, ok := strings.Cut(member, ":")
	if !ok {
		return Subscriber{}, errors.Errorf("malformed subscriber %q", member)
	}
	switch SubscriberKind(kind) {
	case SubscriberDiscord:
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return Subscriber{}, errors.Wrapf(err, "malformed discord subscriber %q", member)
		}
		return DiscordSubscriber(n), nil
	default:
		return Subscriber{}, errors.Errorf("unknown subscriber kind %q", kind)
	}
}

// WorldTravel pairs a world with whether travel to it is prohibited.
type WorldTravel struct {
	World      World
	Prohibited bool
}

// EndpointPublish is the render data handed to every subscriber of an endpoint.
// Datacenter publishes carry each world of the datacenter, World publishes exactly one.
type EndpointPublish struct {
	Endpoint Endpoint
	Name     string
	Worlds   []WorldTravel
}

// Builds the publish for a datacenter that has at least one world open.
func DatacenterPublish(dc Datacenter, worlds []WorldTravel) *EndpointPublish {
	return &EndpointPublish{Endpoint: DatacenterEndpoint(dc.ID), Name: dc.Name, Worlds: worlds}
}

// Builds the publish for a single world that opened.
func WorldPublish(w World) *EndpointPublish {
	return &EndpointPublish{Endpoint: WorldEndpoint(w.ID), Name: w.Name, Worlds: []WorldTravel{{World: w}}}
}
