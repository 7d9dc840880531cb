// Package mqtt provides the MQTT transport between Lumen Core and the
// GPIO actuator daemon that drives the relay channels.
//
// It wraps paho.mqtt.golang with connection management, automatic
// reconnection, subscription restoration, and Last Will and Testament
// for offline detection.
//
// # Topic Hierarchy
//
//	lumen/command/gpio/{channel}   Switching commands to the actuator
//	lumen/state/gpio/{channel}     Channel state reported by the actuator
//	lumen/system/status            Controller online/offline status (retained)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{}
//	err = client.Subscribe(topics.AllChannelStates(), 1,
//	    func(topic string, payload []byte) error {
//	        // handle state update
//	        return nil
//	    })
//
// # Reliability
//
// The client auto-reconnects with exponential backoff and restores all
// subscriptions on reconnect. Commands published while disconnected fail
// fast with ErrNotConnected rather than queueing.
package mqtt
