// Package all registers every invoker variant with the default registry.
//
//	import _ "github.com/rhuss/claudenode/pkg/invoker/all"
package all

import (
	_ "github.com/rhuss/claudenode/pkg/invoker/bundled"
	_ "github.com/rhuss/claudenode/pkg/invoker/cli"
	_ "github.com/rhuss/claudenode/pkg/invoker/stream"
	_ "github.com/rhuss/claudenode/pkg/invoker/stub"
)
