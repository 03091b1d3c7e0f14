package main

// Include the GoMLX backend, used by the "gomlx" models.

import (
	_ "github.com/gomlx/gomlx/backends/simplego"
)
