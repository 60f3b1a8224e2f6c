// Package content drives the in-page assistant: capturing a selection,
// placing the floating icon and prompt panel, running generations through the
// background layer and writing results back into the page.
//
// Page access is behind small interfaces (TextField, RichTarget) so the state
// machine and insertion logic run without a browser.
package content
