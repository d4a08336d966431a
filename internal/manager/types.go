package manager

// State represents the lifecycle state of the manager.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateClosed  State = "closed"
)

// Device is the compute device the model is bound to.
type Device string

const (
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

// Accelerated reports whether d is a GPU device.
func (d Device) Accelerated() bool { return d == DeviceCUDA }
