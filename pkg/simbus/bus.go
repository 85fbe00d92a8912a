package simbus

// Bus is an in-process CAN bus: publishing a frame fans it out to every
// other node's on_frame synchronously. Real SocketCAN hardware broadcasts
// similarly (a transmitter does not receive its own frame unless the
// controller is configured to loop it back), so a publisher is excluded
// from its own delivery list.
type Bus struct {
	nodes []*Node
}

func newBus() *Bus {
	return &Bus{}
}

func (b *Bus) register(n *Node) {
	b.nodes = append(b.nodes, n)
}

// Publish delivers frameID/data to every node but sender.
func (b *Bus) Publish(sender *Node, frameID uint32, data uint64) {
	for _, n := range b.nodes {
		if n == sender {
			continue
		}
		n.onFrame(frameID, data)
	}
}
