// func_id.go lists the VdpFuncId values resolved through VdpGetProcAddress.

package native

type funcID uint32

const (
	funcIDGetErrorString                         = funcID(0)
	funcIDGetProcAddress                         = funcID(1)
	funcIDGetAPIVersion                          = funcID(2)
	funcIDGetInformationString                   = funcID(4)
	funcIDDeviceDestroy                          = funcID(5)
	funcIDVideoSurfaceCreate                     = funcID(9)
	funcIDVideoSurfaceDestroy                    = funcID(10)
	funcIDOutputSurfaceCreate                    = funcID(18)
	funcIDOutputSurfaceDestroy                   = funcID(19)
	funcIDVideoMixerCreate                       = funcID(46)
	funcIDVideoMixerDestroy                      = funcID(53)
	funcIDVideoMixerRender                       = funcID(54)
	funcIDPresentationQueueTargetDestroy         = funcID(55)
	funcIDPresentationQueueCreate                = funcID(56)
	funcIDPresentationQueueDestroy               = funcID(57)
	funcIDPresentationQueueDisplay               = funcID(63)
	funcIDPresentationQueueBlockUntilSurfaceIdle = funcID(64)

	funcIDBaseWinsys                       = funcID(0x1000)
	funcIDPresentationQueueTargetCreateX11 = funcIDBaseWinsys + 0
)

// VdpVideoMixerParameter values.
const (
	videoMixerParameterVideoSurfaceWidth  = uint32(0)
	videoMixerParameterVideoSurfaceHeight = uint32(1)
	videoMixerParameterChromaType         = uint32(2)
)
