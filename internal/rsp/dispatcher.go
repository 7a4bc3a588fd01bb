package rsp

// Dispatcher turns one decoded GDB RSP packet into a reply. It is the
// "external collaborator" boundary spec.md places between the packet
// transport and the ADIv5 access layer (spec.md §2's overview diagram):
// Transport owns framing only, Dispatcher owns command semantics.
type Dispatcher interface {
	// Handle returns the reply payload to send back (unescaped,
	// unhexed — PutPacket does that), and whether the session should
	// close after sending it.
	Handle(packet string) (reply string, closeSession bool)
}

// Serve drives one GDB connection end to end: GetPacket, Handle,
// PutPacket, until EOT or a transport error. It owns no retry/ack
// policy beyond what Transport already implements.
func (t *Transport) Serve(d Dispatcher) error {
	for {
		packet, err := t.GetPacket()
		if err != nil {
			return err
		}
		if len(packet) == 1 && packet[0] == eot {
			return nil
		}

		reply, closeSession := d.Handle(string(packet))
		if err := t.PutPacket("", reply, false); err != nil {
			return err
		}
		if closeSession {
			return nil
		}
	}
}
