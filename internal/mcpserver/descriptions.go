package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeExtractFunctions() string {
	return `Lists every function defined in C or C++ source files, with the facts a test-harness generator needs to drive it.

USE WHEN:
- Choosing which functions of a student or library file a harness should call
- Deciding how test data must be shaped for a function (1D array, text, 2D matrix, image)
- Finding enum parameters that select an algorithm variant and the values they accept

INTERPRETING RESULTS:
- type "array": a pointer parameter followed by a size parameter, e.g. sort(int* a, int n)
- type "array text": the array holds characters, e.g. count(const char* s, size_t len)
- type "matrix": two or more size parameters describe a 2D buffer
- type "matrix image": the matrix is an image type (Image, RGBImage, ...)
- type "unknown": no shape rule applied; call it by hand
- enumValues: for each enum-typed parameter, the qualified enumerators it accepts
- argumentVariables: file-scope variables whose type fits a selector parameter
- startPos/endPos are [line, column], 1-based, spanning the whole definition

FIELDS RETURNED:
- Per function: name, returnType, parameters (type, title), startPos, endPos, type, enumValues, argumentVariables
- Several files: {"files": [...], "failed": [{"file", "error"}]}`
}

func describeExtractInputs() string {
	return `Finds what a C or C++ program reads from standard input, and whether it already contains a harness driver.

USE WHEN:
- Generating input files for a program that reads with cin >> x or scanf
- Checking whether a test driver is complete enough to run unchanged
- Collecting the data files a driver loads so they can be supplied

INTERPRETING RESULTS:
- variables: each variable read from input, in read order, with its declared type and position
- ready: true only when main creates the test options, function manager and data manager and registers test functions
- markers: which of those four pieces were found
- discoveredLiterals: string literals passed to the run method, usually test names or data paths
- discoveredData: data wrapper constructions (DataImage, DataArray, ...) with the file they load

FIELDS RETURNED:
- variables [{name, type, pos}], ready, discoveredLiterals, discoveredData [{type, filename}], markers
- Several files: {"files": [...], "failed": [{"file", "error"}]}`
}

func describeListSources() string {
	return `Lists the C and C++ files extraction would visit under the given paths, honoring .gitignore and configured exclusions.

USE WHEN:
- Checking which files a directory extraction will cover before running it
- Locating headers that declare the types used by a translation unit

INTERPRETING RESULTS:
- Only translation units (.c, .cc, .cpp, .cxx, .c++) are listed unless headers is set
- Files under excluded directories (build, vendor, .git, ...) never appear

FIELDS RETURNED:
- files: paths in discovery order`
}
