package acquire

// Library is the fixed identity of the native library this tool
// acquires. It is immutable and passed into the pipeline at
// construction so tests can substitute fixtures.
type Library struct {
	Name            string // primary library, e.g. "tensorflow"
	Framework       string // companion framework library
	Target          string // bazel target of the primary library
	FrameworkTarget string // bazel target of the framework library
	Repository      string // git URL of the source repository
	Tag             string // fixed tag to build from source
	MinBazel        string // minimum supported bazel version
}

// TensorFlow returns the libtensorflow identity. The tag is kept
// separate from any version constant because upstream tags are not
// always "v" + version.
func TensorFlow() Library {
	return Library{
		Name:            "tensorflow",
		Framework:       "tensorflow_framework",
		Target:          "tensorflow:libtensorflow",
		FrameworkTarget: "tensorflow:libtensorflow_framework",
		Repository:      "https://github.com/tensorflow/tensorflow.git",
		Tag:             "v2.2.0",
		MinBazel:        "0.5.4",
	}
}
