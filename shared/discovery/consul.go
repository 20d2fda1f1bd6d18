package discovery

import (
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
)

// Registration describes how this instance is announced to Consul.
type Registration struct {
	ID        string
	Name      string
	Address   string
	Port      int
	HealthURL string
}

// ConsulRegistrar registers and deregisters a service instance with the local agent.
type ConsulRegistrar struct {
	client *consulapi.Client
}

// NewConsulRegistrar creates a registrar talking to the agent at addr.
func NewConsulRegistrar(addr string) (*ConsulRegistrar, error) {
	cfg := consulapi.DefaultConfig()
	cfg.Address = addr

	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	return &ConsulRegistrar{client: client}, nil
}

// Register announces reg with an HTTP health check.
func (r *ConsulRegistrar) Register(reg Registration) error {
	svc := &consulapi.AgentServiceRegistration{
		ID:      reg.ID,
		Name:    reg.Name,
		Address: reg.Address,
		Port:    reg.Port,
	}
	if reg.HealthURL != "" {
		svc.Check = &consulapi.AgentServiceCheck{
			HTTP:                           reg.HealthURL,
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		}
	}

	if err := r.client.Agent().ServiceRegister(svc); err != nil {
		return fmt.Errorf("consul register %s: %w", reg.ID, err)
	}
	return nil
}

// Deregister removes the instance registered under id.
func (r *ConsulRegistrar) Deregister(id string) error {
	if err := r.client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("consul deregister %s: %w", id, err)
	}
	return nil
}
