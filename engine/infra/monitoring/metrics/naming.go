package metrics

import "strings"

// Prefix namespaces every instrument exported by the configurator.
const Prefix = "configurator_"

// MetricName prefixes name unless it already carries the prefix.
func MetricName(name string) string {
	if strings.HasPrefix(name, Prefix) {
		return name
	}
	return Prefix + name
}

// MetricNameWithSubsystem joins subsystem and name under the prefix.
func MetricNameWithSubsystem(subsystem, name string) string {
	subsystem = strings.Trim(subsystem, "_")
	name = strings.Trim(name, "_")
	if strings.HasPrefix(name, Prefix) {
		return name
	}
	switch {
	case subsystem == "" && name == "":
		return strings.TrimSuffix(Prefix, "_")
	case subsystem == "":
		return Prefix + name
	case name == "":
		return Prefix + subsystem
	}
	return Prefix + subsystem + "_" + name
}
