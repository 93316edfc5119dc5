// Package ingest accepts blendshape values pushed by an external facial
// capture peripheral (iFacialMocap-compatible) and exposes the latest
// full set to the pipeline without blocking either side.
package ingest

// Channels is the fixed catalogue of the 52 ARKit blendshape channels a
// peripheral may drive. Keys outside this set are dropped on parse.
var Channels = []string{
	"browDown_L", "browDown_R", "browInnerUp", "browOuterUp_L", "browOuterUp_R",
	"cheekPuff", "cheekSquint_L", "cheekSquint_R", "eyeBlink_L", "eyeBlink_R",
	"eyeLookDown_L", "eyeLookDown_R", "eyeLookIn_L", "eyeLookIn_R", "eyeLookOut_L",
	"eyeLookOut_R", "eyeLookUp_L", "eyeLookUp_R", "eyeSquint_L", "eyeSquint_R",
	"eyeWide_L", "eyeWide_R", "jawForward", "jawLeft", "jawOpen", "jawRight",
	"mouthClose", "mouthDimple_L", "mouthDimple_R", "mouthFrown_L", "mouthFrown_R",
	"mouthFunnel", "mouthLeft", "mouthLowerDown_L", "mouthLowerDown_R", "mouthPress_L",
	"mouthPress_R", "mouthPucker", "mouthRight", "mouthRollLower", "mouthRollUpper",
	"mouthShrugLower", "mouthShrugUpper", "mouthSmile_L", "mouthSmile_R",
	"mouthStretch_L", "mouthStretch_R", "mouthUpperUp_L", "mouthUpperUp_R",
	"noseSneer_L", "noseSneer_R", "tongueOut",
}

var channelSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Channels))
	for _, name := range Channels {
		set[name] = struct{}{}
	}
	return set
}()

// KnownChannel reports whether name is in the catalogue.
func KnownChannel(name string) bool {
	_, ok := channelSet[name]
	return ok
}
