// Package connectivity waits for the node's network path before it starts
// serving.
//
// Joining the network (WiFi association, DHCP lease) belongs to the operating
// system. The node only polls the configured interface until it carries a
// usable address, so the MQTT connect and the HTTP listener do not race the
// network coming up at boot.
package connectivity
