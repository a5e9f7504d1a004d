package config

// Embedded configuration, keyed by device ID. Populate at build time
// (e.g. via code generation) or manually during development.

const cfgPico = `{
  "hal": {
    "devices": [
      {"id": "led0", "type": "pin",
       "params": {"pin": 25, "direction": "output", "initial": false}},
      {"id": "button0", "type": "button",
       "params": {"pin": 2, "active_low": true, "pull": "up", "debounce_ms": 25}},
      {"id": "vsys", "type": "adc_channel",
       "params": {"channel": 3, "samples": 4, "interval_ms": 2}},
      {"id": "console", "type": "serial",
       "params": {"port": "uart0", "baud": 115200}}
    ],
    "pollers": [
      {"kind": "adc", "name": "vsys", "verb": "read", "interval_ms": 1000}
    ]
  },
  "heartbeat": {"interval": 2}
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
}
