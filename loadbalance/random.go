package loadbalance

import "math/rand"

// RandomBalancer picks uniformly at random. With no instance weights in
// the data model this is the neutral default, and it is the pick the
// registry core uses when warming its read cache from a full member
// list.
type RandomBalancer struct{}

func (b *RandomBalancer) Pick(addrs []string) (string, error) {
	if len(addrs) == 0 {
		return "", ErrNoAddresses
	}
	return addrs[rand.Intn(len(addrs))], nil
}

func (b *RandomBalancer) Name() string {
	return "Random"
}
