// Copyright 2025 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package typeinfo contains code relating to Go types and their processing in
sqlfetch. As much as possible, reflection code is limited to this package. It
contains the logic for validating the types results are decoded into, caching
information about them, and converting driver column values into them.
*/
package typeinfo
