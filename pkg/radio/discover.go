package radio

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/grandcat/zeroconf"
)

// Service is the mDNS service type network-attached radios advertise.
const Service = "_grflow._tcp"

// Host is a discovered radio endpoint.
type Host struct {
	Instance  string
	Hostname  string
	Addresses []net.IP
	Port      int
}

// Addr returns a dialable host:port for the first advertised address.
func (h Host) Addr() string {
	if len(h.Addresses) == 0 {
		return fmt.Sprintf("%s:%d", h.Hostname, h.Port)
	}
	return fmt.Sprintf("%s:%d", h.Addresses[0], h.Port)
}

// Discover browses mDNS for radios, blocking for the given timeout. Results
// are deduplicated by hostname and port.
func Discover(timeout time.Duration) ([]Host, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("resolver error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(map[string]Host)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					return
				}
				if e == nil {
					continue
				}
				addrs := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
				addrs = append(addrs, e.AddrIPv4...)
				addrs = append(addrs, e.AddrIPv6...)
				key := fmt.Sprintf("%s|%d", e.HostName, e.Port)
				found[key] = Host{
					Instance:  e.Instance,
					Hostname:  e.HostName,
					Addresses: addrs,
					Port:      e.Port,
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, Service, "local.", entries); err != nil {
		return nil, fmt.Errorf("browse error: %w", err)
	}
	<-done

	out := make([]Host, 0, len(found))
	for _, h := range found {
		out = append(out, h)
	}
	return out, nil
}
