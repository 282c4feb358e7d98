package mk8shell

// Verb is one of the closed enumerated set of primitive operations
// mk8.shell scripts may invoke (spec.md §3 "Script model").
type Verb string

// Filesystem verbs: read/write/batch/inspection/structured-edit.
const (
	VerbFileRead         Verb = "FileRead"
	VerbFileWrite        Verb = "FileWrite"
	VerbFileAppend       Verb = "FileAppend"
	VerbFileDelete       Verb = "FileDelete"
	VerbFileCopy         Verb = "FileCopy"
	VerbFileMove         Verb = "FileMove"
	VerbFileExists       Verb = "FileExists"
	VerbFileStat         Verb = "FileStat"
	VerbFileWriteMany    Verb = "FileWriteMany"  // batch
	VerbFileCopyMany     Verb = "FileCopyMany"   // batch
	VerbFileDeleteMany   Verb = "FileDeleteMany" // batch
	VerbFilePatch        Verb = "FilePatch"      // structured-edit
	VerbFileReplaceLines Verb = "FileReplaceLines" // structured-edit
	VerbFileTouch        Verb = "FileTouch"
	VerbFileTruncate     Verb = "FileTruncate"
	VerbFileSize         Verb = "FileSize"
	VerbFileHash         Verb = "FileHash"
	VerbFileTail         Verb = "FileTail"
	VerbFileHead         Verb = "FileHead"
	VerbFileCountLines   Verb = "FileCountLines"
	VerbFileReadRange    Verb = "FileReadRange"
	VerbFileAppendLines  Verb = "FileAppendLines"
	VerbFileSymlinkRead  Verb = "FileSymlinkRead"
)

// Directory verbs.
const (
	VerbDirList   Verb = "DirList"
	VerbDirCreate Verb = "DirCreate"
	VerbDirDelete Verb = "DirDelete"
	VerbDirExists Verb = "DirExists"
	VerbDirCopy   Verb = "DirCopy"
	VerbDirMove   Verb = "DirMove"
	VerbDirSize   Verb = "DirSize"
	VerbDirWalk   Verb = "DirWalk"
)

// Process verbs — exactly one, per spec.md §3.
const (
	VerbProcRun Verb = "ProcRun"
)

// HTTP verbs.
const (
	VerbHTTPGet      Verb = "HTTPGet"
	VerbHTTPPost     Verb = "HTTPPost"
	VerbHTTPHead     Verb = "HTTPHead"
	VerbHTTPPut      Verb = "HTTPPut"
	VerbHTTPDelete   Verb = "HTTPDelete"
	VerbHTTPPatch    Verb = "HTTPPatch"
	VerbHTTPDownload Verb = "HTTPDownload"
)

// Text verbs.
const (
	VerbTextContains  Verb = "TextContains"
	VerbTextReplace   Verb = "TextReplace"
	VerbTextSplit     Verb = "TextSplit"
	VerbTextJoin      Verb = "TextJoin"
	VerbTextTrim      Verb = "TextTrim"
	VerbTextMatch     Verb = "TextMatch"
	VerbTextLineCount Verb = "TextLineCount"
	VerbTextUpper     Verb = "TextUpper"
	VerbTextLower     Verb = "TextLower"
	VerbTextPad       Verb = "TextPad"
	VerbTextRepeat    Verb = "TextRepeat"
	VerbTextReverse   Verb = "TextReverse"
	VerbTextIndexOf   Verb = "TextIndexOf"
	VerbTextSubstring Verb = "TextSubstring"
	VerbTextTemplate  Verb = "TextTemplate"
)

// JSON verbs.
const (
	VerbJSONGet         Verb = "JSONGet"
	VerbJSONSet         Verb = "JSONSet"
	VerbJSONValid       Verb = "JSONValid"
	VerbJSONMerge       Verb = "JSONMerge"
	VerbJSONDelete      Verb = "JSONDelete"
	VerbJSONKeys        Verb = "JSONKeys"
	VerbJSONArrayAppend Verb = "JSONArrayAppend"
	VerbJSONType        Verb = "JSONType"
)

// Env verbs.
const (
	VerbEnvGet    Verb = "EnvGet"
	VerbEnvList   Verb = "EnvList"
	VerbEnvExists Verb = "EnvExists"
)

// Sysinfo verbs.
const (
	VerbSysInfoOS       Verb = "SysInfoOS"
	VerbSysInfoHostname Verb = "SysInfoHostname"
	VerbSysInfoCPUCount Verb = "SysInfoCPUCount"
	VerbSysInfoArch     Verb = "SysInfoArch"
	VerbSysInfoMemory   Verb = "SysInfoMemory"
	VerbSysInfoUptime   Verb = "SysInfoUptime"
	VerbSysInfoLoadAvg  Verb = "SysInfoLoadAvg"
)

// Path verbs (pure string manipulation, no filesystem access).
const (
	VerbPathJoin      Verb = "PathJoin"
	VerbPathBaseName  Verb = "PathBaseName"
	VerbPathDirName   Verb = "PathDirName"
	VerbPathExt       Verb = "PathExt"
	VerbPathClean     Verb = "PathClean"
	VerbPathIsAbs     Verb = "PathIsAbs"
	VerbPathRel       Verb = "PathRel"
	VerbPathMatch     Verb = "PathMatch"
	VerbPathToSlash   Verb = "PathToSlash"
	VerbPathFromSlash Verb = "PathFromSlash"
)

// Identity verbs.
const (
	VerbIdentityWhoAmI    Verb = "IdentityWhoAmI"
	VerbIdentityAgentID   Verb = "IdentityAgentID"
	VerbIdentityCallerID  Verb = "IdentityCallerID"
)

// Time verbs.
const (
	VerbTimeNowUTC       Verb = "TimeNowUTC"
	VerbTimeFormat       Verb = "TimeFormat"
	VerbTimeParse        Verb = "TimeParse"
	VerbTimeAddDuration  Verb = "TimeAddDuration"
	VerbTimeDiff         Verb = "TimeDiff"
	VerbTimeUnix         Verb = "TimeUnix"
	VerbTimeZoneConvert  Verb = "TimeZoneConvert"
)

// Version verbs.
const (
	VerbVersionCompare   Verb = "VersionCompare"
	VerbVersionSatisfies Verb = "VersionSatisfies"
)

// Encoding verbs.
const (
	VerbBase64Encode Verb = "Base64Encode"
	VerbBase64Decode Verb = "Base64Decode"
	VerbHexEncode    Verb = "HexEncode"
	VerbHexDecode    Verb = "HexDecode"
	VerbURLEncode    Verb = "URLEncode"
	VerbURLDecode    Verb = "URLDecode"
	VerbBase32Encode Verb = "Base32Encode"
	VerbBase32Decode Verb = "Base32Decode"
	VerbHTMLEscape   Verb = "HTMLEscape"
	VerbHTMLUnescape Verb = "HTMLUnescape"
)

// Formatting verbs.
const (
	VerbFormatBytes    Verb = "FormatBytes"
	VerbFormatJSON     Verb = "FormatJSON"
	VerbFormatDuration Verb = "FormatDuration"
	VerbFormatNumber   Verb = "FormatNumber"
	VerbFormatPercent  Verb = "FormatPercent"
)

// Archive verbs.
const (
	VerbArchiveExtract Verb = "ArchiveExtract"
	VerbArchiveCreate  Verb = "ArchiveCreate"
	VerbArchiveList    Verb = "ArchiveList"
	VerbArchiveInfo    Verb = "ArchiveInfo"
)

// Math verbs.
const (
	VerbMathEval Verb = "MathEval"
	VerbMathStat Verb = "MathStat"
)

// Clipboard verbs.
const (
	VerbClipboardRead  Verb = "ClipboardRead"
	VerbClipboardWrite Verb = "ClipboardWrite"
)

// URL verbs (pure validation/parsing, no network access).
const (
	VerbURLValidate Verb = "URLValidate"
	VerbURLParse    Verb = "URLParse"
	VerbURLJoin     Verb = "URLJoin"
	VerbURLQueryGet Verb = "URLQueryGet"
)

// Network diagnostics verbs.
const (
	VerbNetResolve    Verb = "NetResolve"
	VerbNetPing       Verb = "NetPing"
	VerbNetDNSLookup  Verb = "NetDNSLookup"
	VerbNetPortCheck  Verb = "NetPortCheck"
)

// Script-control verbs.
const (
	VerbEcho   Verb = "Echo"
	VerbSleep  Verb = "Sleep"
	VerbAssert Verb = "Assert"
	VerbFail   Verb = "Fail"
)

// Control-flow verbs — handled entirely at compile time (expanded away).
const (
	VerbForEach Verb = "ForEach"
	VerbIf      Verb = "If"
)

// Composition verb — inlined at compile time.
const (
	VerbInclude Verb = "Include"
)

// Introspection verbs.
const (
	VerbMk8Info    Verb = "Mk8Info"
	VerbMk8Verbs   Verb = "Mk8Verbs"
	VerbMk8Sandbox Verb = "Mk8Sandbox"
	VerbMk8Health  Verb = "Mk8Health"
	VerbMk8Limits  Verb = "Mk8Limits"
)

// pureVerbFamilies is the set of verbs that never spawn an external process.
// Everything not in this set and not a control-flow/composition verb is
// ProcRun, the sole process-spawning verb.
var pureVerbFamilies = []Verb{
	VerbFileRead, VerbFileWrite, VerbFileAppend, VerbFileDelete, VerbFileCopy, VerbFileMove,
	VerbFileExists, VerbFileStat, VerbFilePatch, VerbFileReplaceLines,
	VerbFileTouch, VerbFileTruncate, VerbFileSize, VerbFileHash, VerbFileTail, VerbFileHead,
	VerbFileCountLines, VerbFileReadRange, VerbFileAppendLines, VerbFileSymlinkRead,
	VerbDirList, VerbDirCreate, VerbDirDelete, VerbDirExists, VerbDirCopy, VerbDirMove, VerbDirSize, VerbDirWalk,
	VerbHTTPGet, VerbHTTPPost, VerbHTTPHead, VerbHTTPPut, VerbHTTPDelete, VerbHTTPPatch, VerbHTTPDownload,
	VerbTextContains, VerbTextReplace, VerbTextSplit, VerbTextJoin, VerbTextTrim, VerbTextMatch, VerbTextLineCount,
	VerbTextUpper, VerbTextLower, VerbTextPad, VerbTextRepeat, VerbTextReverse, VerbTextIndexOf, VerbTextSubstring, VerbTextTemplate,
	VerbJSONGet, VerbJSONSet, VerbJSONValid, VerbJSONMerge, VerbJSONDelete, VerbJSONKeys, VerbJSONArrayAppend, VerbJSONType,
	VerbEnvGet, VerbEnvList, VerbEnvExists,
	VerbSysInfoOS, VerbSysInfoHostname, VerbSysInfoCPUCount, VerbSysInfoArch, VerbSysInfoMemory, VerbSysInfoUptime, VerbSysInfoLoadAvg,
	VerbPathJoin, VerbPathBaseName, VerbPathDirName, VerbPathExt, VerbPathClean,
	VerbPathIsAbs, VerbPathRel, VerbPathMatch, VerbPathToSlash, VerbPathFromSlash,
	VerbIdentityWhoAmI, VerbIdentityAgentID, VerbIdentityCallerID,
	VerbTimeNowUTC, VerbTimeFormat, VerbTimeParse, VerbTimeAddDuration, VerbTimeDiff, VerbTimeUnix, VerbTimeZoneConvert,
	VerbVersionCompare, VerbVersionSatisfies,
	VerbBase64Encode, VerbBase64Decode, VerbHexEncode, VerbHexDecode, VerbURLEncode, VerbURLDecode,
	VerbBase32Encode, VerbBase32Decode, VerbHTMLEscape, VerbHTMLUnescape,
	VerbFormatBytes, VerbFormatJSON, VerbFormatDuration, VerbFormatNumber, VerbFormatPercent,
	VerbArchiveExtract, VerbArchiveCreate, VerbArchiveList, VerbArchiveInfo,
	VerbMathEval, VerbMathStat,
	VerbClipboardRead, VerbClipboardWrite,
	VerbURLValidate, VerbURLParse, VerbURLJoin, VerbURLQueryGet,
	VerbNetResolve, VerbNetPing, VerbNetDNSLookup, VerbNetPortCheck,
	VerbEcho, VerbSleep, VerbAssert, VerbFail,
	VerbMk8Info, VerbMk8Verbs, VerbMk8Sandbox, VerbMk8Health, VerbMk8Limits,
}

// IsPureVerb reports whether v executes entirely in-memory (never spawns
// a process). The only verb that isn't pure is ProcRun.
func IsPureVerb(v Verb) bool {
	if v == VerbProcRun {
		return false
	}
	for _, pv := range pureVerbFamilies {
		if pv == v {
			return true
		}
	}
	return false
}

// IsControlFlowVerb reports whether v is handled entirely by the compiler
// and never reaches the executor.
func IsControlFlowVerb(v Verb) bool {
	return v == VerbForEach || v == VerbIf || v == VerbInclude
}

// KnownVerbs is the full closed set recognized by the compiler.
func KnownVerbs() []Verb {
	all := append([]Verb{VerbProcRun, VerbForEach, VerbIf, VerbInclude}, pureVerbFamilies...)
	return all
}
