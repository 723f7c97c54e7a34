// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// Fuzz exercises the whole pipeline -- PE container, CLI header, metadata
// root and table stream -- over an arbitrary byte slice. It never panics on
// malformed input; PE container failures come back as plain sentinel errors
// and metadata failures as a typed *Error.
func Fuzz(data []byte) int {
	f, err := NewBytes(data, &Options{Fast: false})
	if err != nil {
		return 0
	}
	defer f.Close()

	if err := f.Parse(); err != nil {
		return 0
	}

	if f.HasCLR {
		if _, err := f.TypeDefs(); err != nil {
			return 0
		}
		if _, err := f.MethodDefs(); err != nil {
			return 0
		}
	}

	return 1
}
