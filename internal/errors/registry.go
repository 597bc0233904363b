package errors

// Template defines a registered error.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// Error codes.
const (
	ConfigRead          = "E100"
	ConfigParse         = "E101"
	ConfigUploadBackend = "E102"
	ConfigS3Bucket      = "E103"
	ConfigLogLevel      = "E104"
	ConfigLogFormat     = "E105"
	ConfigPort          = "E106"
	ConfigDuration      = "E107"
	ConfigS3Credentials = "E108"

	ProtocolMalformed      = "E200"
	ProtocolUnknownType    = "E201"
	ProtocolUnknownElement = "E202"
	ProtocolNoSnapshot     = "E203"
	ProtocolBadFile        = "E204"
	ProtocolUnknownEvent   = "E205"
	ProtocolUnknownControl = "E206"
	ProtocolNoChooser      = "E207"
	ProtocolSetup          = "E208"

	ScenarioRead           = "E300"
	ScenarioParse          = "E301"
	ScenarioControllerKind = "E302"
	ScenarioUnknownStep    = "E303"
	ScenarioNoElement      = "E304"
	ScenarioDuplicateID    = "E305"
	ScenarioExpectation    = "E306"
	ScenarioNoChooser      = "E307"

	ScenarioDuplicateController = "E308"

	UploadStore    = "E400"
	UploadRejected = "E401"

	CLIUsage = "E500"
)

var registry = map[string]Template{
	// Config (E100-E199)
	ConfigRead: {
		Category: CategoryConfig,
		Message:  "Cannot read config file",
		Detail:   "The config file exists but could not be read.",
	},
	ConfigParse: {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The config file is not valid JSON.",
	},
	ConfigUploadBackend: {
		Category: CategoryConfig,
		Message:  "Unknown upload backend",
		Detail:   `upload.backend must be "disk" or "s3".`,
	},
	ConfigS3Bucket: {
		Category: CategoryConfig,
		Message:  "Missing S3 bucket",
		Detail:   "The s3 upload backend needs upload.s3.bucket.",
	},
	ConfigLogLevel: {
		Category: CategoryConfig,
		Message:  "Unknown log level",
		Detail:   "log.level must be one of debug, info, warn or error.",
	},
	ConfigLogFormat: {
		Category: CategoryConfig,
		Message:  "Unknown log format",
		Detail:   `log.format must be "text" or "json".`,
	},
	ConfigPort: {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "Port must be between 0 and 65535.",
	},
	ConfigDuration: {
		Category: CategoryConfig,
		Message:  "Invalid duration",
		Detail:   `Durations use Go syntax such as "90s" or "1h".`,
	},
	ConfigS3Credentials: {
		Category: CategoryConfig,
		Message:  "Missing S3 credentials",
		Detail:   "Set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY for the s3 upload backend.",
	},

	// Protocol (E200-E299)
	ProtocolMalformed: {
		Category: CategoryProtocol,
		Message:  "Malformed message",
		Detail:   "The client sent a frame that is not a valid JSON message.",
	},
	ProtocolUnknownType: {
		Category: CategoryProtocol,
		Message:  "Unknown message type",
	},
	ProtocolUnknownElement: {
		Category: CategoryProtocol,
		Message:  "Unknown element",
		Detail:   "The event targets an element id that was not in the page snapshot.",
	},
	ProtocolNoSnapshot: {
		Category: CategoryProtocol,
		Message:  "Page snapshot required",
		Detail:   "The first message of a session must be a snapshot of the page.",
	},
	ProtocolBadFile: {
		Category: CategoryProtocol,
		Message:  "Invalid file payload",
		Detail:   "File content must be base64 encoded.",
	},
	ProtocolUnknownEvent: {
		Category: CategoryProtocol,
		Message:  "Unsupported event",
	},
	ProtocolUnknownControl: {
		Category: CategoryProtocol,
		Message:  "Unknown controller",
		Detail:   "The message names a controller this session did not create.",
	},
	ProtocolNoChooser: {
		Category: CategoryProtocol,
		Message:  "Controller has no file chooser",
		Detail:   "Only drop controllers created with click enabled accept file selections.",
	},
	ProtocolSetup: {
		Category: CategoryProtocol,
		Message:  "Session setup failed",
	},

	// Scenario (E300-E399)
	ScenarioRead: {
		Category: CategoryScenario,
		Message:  "Cannot read scenario",
	},
	ScenarioParse: {
		Category: CategoryScenario,
		Message:  "Invalid scenario",
		Detail:   "The scenario is not valid YAML.",
	},
	ScenarioControllerKind: {
		Category: CategoryScenario,
		Message:  "Unknown controller kind",
		Detail:   `A controller's kind must be "drop" or "drag".`,
	},
	ScenarioUnknownStep: {
		Category: CategoryScenario,
		Message:  "Unknown step",
		Detail:   "A step must name exactly one of event, gesture or select.",
	},
	ScenarioNoElement: {
		Category: CategoryScenario,
		Message:  "Element not found",
	},
	ScenarioDuplicateID: {
		Category: CategoryScenario,
		Message:  "Duplicate element id",
	},
	ScenarioExpectation: {
		Category: CategoryScenario,
		Message:  "Expectation failed",
	},
	ScenarioNoChooser: {
		Category: CategoryScenario,
		Message:  "Controller has no file chooser",
		Detail:   "Selecting files needs a drop controller created with click enabled.",
	},
	ScenarioDuplicateController: {
		Category: CategoryScenario,
		Message:  "Duplicate controller name",
		Detail:   "Steps and events refer to controllers by name, so each name must be unique.",
	},

	// Upload (E400-E499)
	UploadStore: {
		Category: CategoryUpload,
		Message:  "Upload store unavailable",
	},
	UploadRejected: {
		Category: CategoryUpload,
		Message:  "Upload rejected",
	},

	// CLI (E500-E599)
	CLIUsage: {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds an error template to the registry. It is not safe to call
// concurrently with New.
func Register(code string, template Template) {
	registry[code] = template
}
