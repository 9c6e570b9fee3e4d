/*
Copyright 2020 The arhat.dev Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"os"

	"arhat.dev/credprompt/pkg/cmd"

	// handlers
	_ "arhat.dev/credprompt/pkg/security/static"
	_ "arhat.dev/credprompt/pkg/security/system"
	_ "arhat.dev/credprompt/pkg/security/webhook"
	_ "arhat.dev/credprompt/pkg/ui"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	err := rootCmd.Execute()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "credprompt: %v\n", err)
		os.Exit(1)
	}
}
