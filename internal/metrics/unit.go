package metrics

// Unit describes what a gauge value measures.
type Unit string

const (
	None         Unit = ""
	Bytes        Unit = "bytes"
	KiloBytes    Unit = "kb"
	MegaBytes    Unit = "mb"
	Threads      Unit = "threads"
	Percent      Unit = "%"
	Seconds      Unit = "s"
	Milliseconds Unit = "ms"
)

// Custom returns a free-form unit such as "pages/s" or "IOPS".
func Custom(name string) Unit {
	return Unit(name)
}

func (u Unit) String() string {
	return string(u)
}
