// device.go defines the native collaborator contract of the driver.

package vdpau

// Device is the subset of the VDPAU function table used by the driver.
//
// Every method is a thin black box over the corresponding VDPAU entry point
// and reports failures as the raw Status. Implementations are called from
// one goroutine at a time.
type Device interface {
	GetErrorString(status Status) string

	VideoSurfaceCreate(chroma ChromaType, width, height uint32) (VideoSurface, Status)
	VideoSurfaceDestroy(surface VideoSurface) Status

	OutputSurfaceCreate(format RGBAFormat, width, height uint32) (OutputSurface, Status)
	OutputSurfaceDestroy(surface OutputSurface) Status

	VideoMixerCreate(width, height uint32, chroma ChromaType) (VideoMixer, Status)
	VideoMixerDestroy(mixer VideoMixer) Status
	VideoMixerRender(params VideoMixerRenderParams) Status

	PresentationQueueTargetCreateX11(drawable Drawable) (PresentationQueueTarget, Status)
	PresentationQueueTargetDestroy(target PresentationQueueTarget) Status
	PresentationQueueCreate(target PresentationQueueTarget) (PresentationQueue, Status)
	PresentationQueueDestroy(queue PresentationQueue) Status

	// PresentationQueueBlockUntilSurfaceIdle blocks until the surface is no
	// longer queued or displayed. There is no timeout.
	PresentationQueueBlockUntilSurfaceIdle(queue PresentationQueue, surface OutputSurface) (Time, Status)
	PresentationQueueDisplay(queue PresentationQueue, surface OutputSurface, clipWidth, clipHeight uint32, earliest Time) Status
}
