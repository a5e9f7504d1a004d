package errcode

// Code is a stable error identifier for hardware interface operations.
// It is a string newtype, comparable, allocation-free, and implements error.
// The set below is closed: every failure a pin or ADC operation can report
// maps to exactly one of these.
type Code string

func (c Code) Error() string { return string(c) }

// Lifecycle errors.
const (
	OK                 Code = "ok"
	Failure            Code = "failure"
	NotInitialized     Code = "not_initialized"
	AlreadyInitialized Code = "already_initialized"
)

// Parameter errors.
const (
	InvalidParameter     Code = "invalid_parameter"
	InvalidArgument      Code = "invalid_argument"
	NullPointer          Code = "null_pointer"
	InvalidConfiguration Code = "invalid_configuration"
	InvalidPin           Code = "invalid_pin"
	InvalidChannel       Code = "invalid_channel"
)

// Resource errors.
const (
	PinNotFound          Code = "pin_not_found"
	PinNotConfigured     Code = "pin_not_configured"
	PinAlreadyRegistered Code = "pin_already_registered"
	PinAccessDenied      Code = "pin_access_denied"
	PinBusy              Code = "pin_busy"
	ResourceBusy         Code = "resource_busy"
	ResourceUnavailable  Code = "resource_unavailable"
	OutOfMemory          Code = "out_of_memory"
	AccessDenied         Code = "access_denied"
	PermissionDenied     Code = "permission_denied"
)

// Hardware errors.
const (
	HardwareFault       Code = "hardware_fault"
	CommunicationFail   Code = "communication_failure"
	DeviceNotResponding Code = "device_not_responding"
	Timeout             Code = "timeout"
	VoltageOutOfRange   Code = "voltage_out_of_range"
	CalibrationFailure  Code = "calibration_failure"
)

// Operational errors.
const (
	ReadFailure         Code = "read_failure"
	WriteFailure        Code = "write_failure"
	DirectionMismatch   Code = "direction_mismatch"
	PullResistorFailure Code = "pull_resistor_failure"
)

// Interrupt errors.
const (
	InterruptNotSupported   Code = "interrupt_not_supported"
	InterruptAlreadyEnabled Code = "interrupt_already_enabled"
	InterruptNotEnabled     Code = "interrupt_not_enabled"
	InterruptHandlerFailed  Code = "interrupt_handler_failed"
)

// Generic errors.
const (
	Unsupported      Code = "unsupported_operation"
	NotSupported     Code = "not_supported"
	SystemError      Code = "system_error"
	DriverError      Code = "driver_error"
	InvalidState     Code = "invalid_state"
	OperationAborted Code = "operation_aborted"
)

// Describe maps a Code to a human-readable description.
func Describe(c Code) string {
	switch c {
	case OK:
		return "Success"
	case Failure:
		return "General failure"
	case NotInitialized:
		return "Not initialized"
	case AlreadyInitialized:
		return "Already initialized"
	case InvalidParameter:
		return "Invalid parameter"
	case InvalidArgument:
		return "Invalid argument"
	case NullPointer:
		return "Null pointer"
	case InvalidConfiguration:
		return "Invalid configuration"
	case InvalidPin:
		return "Invalid pin"
	case InvalidChannel:
		return "Invalid channel"
	case PinNotFound:
		return "Pin not found"
	case PinNotConfigured:
		return "Pin not configured"
	case PinAlreadyRegistered:
		return "Pin already registered"
	case PinAccessDenied:
		return "Pin access denied"
	case PinBusy:
		return "Pin busy"
	case ResourceBusy:
		return "Resource busy"
	case ResourceUnavailable:
		return "Resource unavailable"
	case OutOfMemory:
		return "Out of memory"
	case AccessDenied:
		return "Access denied"
	case PermissionDenied:
		return "Permission denied"
	case HardwareFault:
		return "Hardware fault"
	case CommunicationFail:
		return "Communication failure"
	case DeviceNotResponding:
		return "Device not responding"
	case Timeout:
		return "Timeout"
	case VoltageOutOfRange:
		return "Voltage out of range"
	case CalibrationFailure:
		return "Calibration failure"
	case ReadFailure:
		return "Read failure"
	case WriteFailure:
		return "Write failure"
	case DirectionMismatch:
		return "Direction mismatch"
	case PullResistorFailure:
		return "Pull resistor failure"
	case InterruptNotSupported:
		return "Interrupt not supported"
	case InterruptAlreadyEnabled:
		return "Interrupt already enabled"
	case InterruptNotEnabled:
		return "Interrupt not enabled"
	case InterruptHandlerFailed:
		return "Interrupt handler failed"
	case Unsupported:
		return "Unsupported operation"
	case NotSupported:
		return "Not supported"
	case SystemError:
		return "System error"
	case DriverError:
		return "Driver error"
	case InvalidState:
		return "Invalid state"
	case OperationAborted:
		return "Operation aborted"
	default:
		return "Unknown error"
	}
}

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to DriverError.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return DriverError
}

// Wrap attaches an operation name to a low-level cause, folding unknown
// errors into DriverError.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: Of(err), Op: op, Err: err}
}
